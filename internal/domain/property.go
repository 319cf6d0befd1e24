package domain

// ListingStatus represents the publication state of a listing
type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusPending  ListingStatus = "pending"
	ListingStatusInactive ListingStatus = "inactive"
)

// Property is the subset of a listing needed to quote a stay
type Property struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	PricePerNight Money         `json:"price_per_night"`
	GuestCapacity int           `json:"guest_capacity"`
	Status        ListingStatus `json:"status"`
}

// IsBookable reports whether guests can book the listing.
// Pending listings await moderation and are kept distinct from inactive ones,
// but neither accepts bookings.
func (p *Property) IsBookable() bool {
	return p.Status == ListingStatusActive || p.Status == ""
}
