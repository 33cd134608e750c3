package form

import (
	"strconv"
	"strings"

	"mikrodesk/internal/api"
)

// Profile lock values accepted by the backend.
const (
	LockEnabled  = "enabled"
	LockDisabled = "disabled"
)

// ExpireModes are the expiry behaviours offered for a profile.
var ExpireModes = []string{"none", "Remove", "Notice", "Remove & Record", "Notice & Record"}

// ProfileForm is the add/edit form for a hotspot user profile.
type ProfileForm struct {
	Name         string `form:"name" validate:"required"`
	AddressPool  string `form:"addressPool"`
	SharedUsers  int    `form:"sharedUsers" validate:"gte=0"`
	RateLimit    string `form:"rateLimit"`
	ParentQueue  string `form:"parentQueue"`
	ExpiredMode  string `form:"expiredMode" validate:"omitempty,oneof=none Remove Notice 'Remove & Record' 'Notice & Record'"`
	Validity     string `form:"validity"`
	Price        string `form:"price" validate:"amount"`
	SellingPrice string `form:"sellingPrice" validate:"amount"`
	LockUser     string `form:"lockUser" validate:"omitempty,oneof=enabled disabled"`
	LockServer   string `form:"lockServer" validate:"omitempty,oneof=enabled disabled"`
}

var profileLabels = map[string]string{
	"name":         "Profile name",
	"sharedUsers":  "Shared users",
	"expiredMode":  "Expire mode",
	"price":        "Price",
	"sellingPrice": "Selling price",
	"lockUser":     "Lock user",
	"lockServer":   "Lock server",
}

// NewProfileForm returns the defaults of an empty profile form.
func NewProfileForm() *ProfileForm {
	return &ProfileForm{
		Price:        "0",
		SellingPrice: "0",
		LockUser:     LockDisabled,
		LockServer:   LockDisabled,
	}
}

// ProfileFormFrom prefills the form for editing p.
func ProfileFormFrom(p *api.HotspotProfile) *ProfileForm {
	return &ProfileForm{
		Name:         p.Name,
		AddressPool:  p.AddressPool,
		SharedUsers:  p.SharedUsers,
		RateLimit:    p.RateLimit,
		ParentQueue:  p.ParentQueue,
		ExpiredMode:  p.ExpireMode,
		Validity:     p.Validity,
		Price:        formatAmount(p.Price.Float()),
		SellingPrice: formatAmount(p.SellingPrice.Float()),
		LockUser:     normalizeLock(p.UserLock),
		LockServer:   normalizeLock(p.ServerLock),
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// normalizeLock maps yes/no style values onto enabled/disabled.
func normalizeLock(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "enabled", "yes", "true":
		return LockEnabled
	default:
		return LockDisabled
	}
}

// Validate checks the profile before it is sent.
func (f *ProfileForm) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Price = strings.TrimSpace(f.Price)
	f.SellingPrice = strings.TrimSpace(f.SellingPrice)
	if f.LockUser != "" {
		f.LockUser = normalizeLock(f.LockUser)
	}
	if f.LockServer != "" {
		f.LockServer = normalizeLock(f.LockServer)
	}
	return check(f, profileLabels)
}

// Payload returns the request body for create or update.
func (f *ProfileForm) Payload() api.ProfilePayload {
	return api.ProfilePayload{
		Name:         f.Name,
		AddressPool:  f.AddressPool,
		SharedUsers:  f.SharedUsers,
		RateLimit:    f.RateLimit,
		ParentQueue:  f.ParentQueue,
		ExpiredMode:  f.ExpiredMode,
		Validity:     f.Validity,
		Price:        f.Price,
		SellingPrice: f.SellingPrice,
		LockUser:     f.LockUser,
		LockServer:   f.LockServer,
	}
}
