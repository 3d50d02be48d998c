package models

// GuestlistEntry is a pre-registered attendee record redeemable for
// admission. The guestlist itself is owned by the remote API; the cart only
// holds non-owning references to entries it is about to redeem.
type GuestlistEntry struct {
	ID                      int    `json:"id"`
	Name                    string `json:"name"`
	Code                    string `json:"code,omitempty"`
	AdditionalGuests        int    `json:"additionalGuests"`
	AdditionalGuestsAllowed int    `json:"additionalGuestsAllowed"`
	ArrivedAt               string `json:"arrivedAt,omitempty"`
}

// Arrived reports whether the entry has already been checked in.
func (e *GuestlistEntry) Arrived() bool {
	return e.ArrivedAt != ""
}

// GuestlistEntryRef is the non-owning reference a cart line keeps for each
// entry redeemed by that line, plus the attendance chosen at add-time.
type GuestlistEntryRef struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Code             string `json:"code,omitempty"`
	AdditionalGuests int    `json:"additionalGuests"`
}

// Ref converts an entry into the reference stored on a cart line.
func (e *GuestlistEntry) Ref() GuestlistEntryRef {
	return GuestlistEntryRef{
		ID:               e.ID,
		Name:             e.Name,
		Code:             e.Code,
		AdditionalGuests: e.AdditionalGuests,
	}
}
