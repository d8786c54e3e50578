package domain

const (
	RoleUser            = "USER"
	RoleServiceProvider = "SERVICE_PROVIDER"
	RoleAdmin           = "ADMIN"
	RoleSuperAdmin      = "SUPER_ADMIN"
)

const (
	AccountActive = "ACTIVE"
	AccountBlock  = "BLOCK"
	AccountDelete = "DELETE"
	AccountReport = "REPORT"
)

const (
	VerificationUnverified = "UNVERIFIED"
	VerificationWaiting    = "WAITING"
	VerificationVerified   = "VERIFIED"
	VerificationRejected   = "REJECTED"
)

// Offer and delivery request statuses share the same vocabulary.
const (
	StatusWaiting = "WAITING"
	StatusApprove = "APPROVE"
	StatusDecline = "DECLINE"
	StatusPaid    = "PAID"
)

const (
	OfferTypeOffer   = "offer"
	OfferTypeCounter = "counter-offer"
)

const (
	RequestTypeDelivery   = "DELIVERY"
	RequestTypeTimeExtend = "TIME_EXTEND"
)

const (
	NotifyOffer              = "OFFER"
	NotifyCounterOffer       = "COUNTER_OFFER"
	NotifyOfferRequest       = "OFFER_REQUEST"
	NotifyGeneral            = "NOTIFICATION"
	NotifyOfferDeclined      = "OFFER_DECLINED"
	NotifyPayment            = "PAYMENT"
	NotifyOrder              = "ORDER"
	NotifyDeliveryRequest    = "DELIVERY_REQUEST"
	NotifyDeliveryApproved   = "DELIVERY_APPROVED"
	NotifyDeliveryDeclined   = "DELIVERY_DECLINED"
	NotifyTimeExtendRequest  = "TIME_EXTEND_REQUEST"
	NotifyTimeExtendApproved = "TIME_EXTEND_APPROVED"
	NotifyTimeExtendDeclined = "TIME_EXTEND_DECLINED"
	NotifyVerification       = "VERIFICATION"
	NotifySupport            = "SUPPORT"
	NotifyRating             = "RATING"
)

const (
	PaymentKindCharge = "CHARGE"
	PaymentKindPayout = "PAYOUT"
)

const (
	PaymentPending = "PENDING"
	PaymentSuccess = "SUCCESS"
	PaymentFailed  = "FAILED"
)

// Back-reference list kinds kept per user.
const (
	RefMyOffer           = "MY_OFFER"
	RefIOffered          = "I_OFFERED"
	RefOrder             = "ORDER"
	RefJob               = "JOB"
	RefFavouriteService  = "FAVOURITE_SERVICE"
	RefFavouriteProvider = "FAVOURITE_PROVIDER"
)

// Order decline marker set when a delivery is rejected.
const OrderStatusDeclined = "DECLINE"

const (
	SettingAdminCommission = "admin_commission_percentage"
	SettingPrivacyPolicy   = "privacy_policy"
	SettingTermsConditions = "terms_conditions"
)

const (
	AnnouncementActive   = "ACTIVE"
	AnnouncementDeactive = "DEACTIVE"
)

const (
	SupportPending = "PENDING"
	SupportSolved  = "SOLVED"
)

// Live-update channel keys.
const (
	ChannelUserPrefix   = "socket:"
	ChannelAnnouncement = "socket:announcement"
)
