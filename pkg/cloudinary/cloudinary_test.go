package cloudinary

import "testing"

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url          string
		publicID     string
		resourceType string
		ok           bool
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712/jobs/offers/img_ab12.jpg", "jobs/offers/img_ab12", "image", true},
		{"https://res.cloudinary.com/demo/image/upload/q_auto,f_auto,w_800/v1712/jobs/cover.png", "jobs/cover", "image", true},
		{"https://res.cloudinary.com/demo/raw/upload/v99/jobs/delivery/doc_1.pdf", "jobs/delivery/doc_1.pdf", "raw", true},
		{"https://res.cloudinary.com/demo/image/upload/logo.png", "logo", "image", true},
		{"https://example.com/image.png", "", "", false},
		{"https://res.cloudinary.com/demo/image/fetch/x.png", "", "", false},
	}
	for _, tt := range tests {
		id, rt, ok := PublicIDFromURL(tt.url)
		if ok != tt.ok || id != tt.publicID || rt != tt.resourceType {
			t.Errorf("PublicIDFromURL(%q) = %q, %q, %v; want %q, %q, %v", tt.url, id, rt, ok, tt.publicID, tt.resourceType, tt.ok)
		}
	}
}
