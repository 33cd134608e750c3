package form

import (
	"strings"

	"mikrodesk/internal/api"
)

// Character sets understood by the voucher generator.
var CharacterSets = []string{"uppercase_numbers", "lowercase_numbers", "numbers", "all"}

// UserModes controls whether username and password are the same.
var UserModes = []string{"same", "different"}

// VoucherForm wraps a generation request with its limits.
type VoucherForm struct {
	Count          int    `form:"count" validate:"min=1,max=100"`
	Profile        string `form:"profile" validate:"required"`
	Server         string `form:"server"`
	TimeLimit      string `form:"timeLimit"`
	DataLimit      string `form:"dataLimit"`
	NameLength     int    `form:"nameLength" validate:"min=4,max=12"`
	PasswordLength int    `form:"passwordLength" validate:"min=4,max=12"`
	Characters     string `form:"characters" validate:"oneof=uppercase_numbers lowercase_numbers numbers all"`
	Comment        string `form:"comment"`
	PrefixUsername string `form:"prefixUsername"`
	UserMode       string `form:"userMode" validate:"oneof=same different"`
}

var voucherLabels = map[string]string{
	"count":          "Count",
	"profile":        "Profile",
	"nameLength":     "Username length",
	"passwordLength": "Password length",
	"characters":     "Character set",
	"userMode":       "User mode",
}

// NewVoucherForm returns the generator defaults.
func NewVoucherForm() *VoucherForm {
	d := api.DefaultVoucherRequest()
	return &VoucherForm{
		Count:          d.Count,
		Server:         d.Server,
		NameLength:     d.NameLength,
		PasswordLength: d.PasswordLength,
		Characters:     d.Characters,
		UserMode:       d.UserMode,
	}
}

// Validate checks the request before it is sent.
func (f *VoucherForm) Validate() error {
	f.Profile = strings.TrimSpace(f.Profile)
	if f.Server == "" {
		f.Server = "all"
	}
	return check(f, voucherLabels)
}

// Request returns the generation request body.
func (f *VoucherForm) Request() api.VoucherRequest {
	return api.VoucherRequest{
		Count:          f.Count,
		Profile:        f.Profile,
		Server:         f.Server,
		TimeLimit:      f.TimeLimit,
		DataLimit:      f.DataLimit,
		NameLength:     f.NameLength,
		PasswordLength: f.PasswordLength,
		Characters:     f.Characters,
		Comment:        f.Comment,
		PrefixUsername: f.PrefixUsername,
		UserMode:       f.UserMode,
	}
}
