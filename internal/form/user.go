package form

import (
	"strings"

	"mikrodesk/internal/api"
)

// UserForm is the add/edit form for a hotspot user.
type UserForm struct {
	Server     string
	Name       string
	Password   string
	MacAddress string
	Profile    string
	TimeLimit  string
	DataLimit  string
	Comment    string
}

type userCreate struct {
	Name     string `form:"name" validate:"required"`
	Password string `form:"password" validate:"required"`
	Profile  string `form:"profile" validate:"required"`
}

type userEdit struct {
	Profile string `form:"profile" validate:"required"`
}

var userLabels = map[string]string{
	"name":     "Name",
	"password": "Password",
	"profile":  "Profile",
}

// NewUserForm returns an empty form targeting every hotspot server.
func NewUserForm() *UserForm {
	return &UserForm{Server: "all"}
}

// UserFormFrom prefills the form for editing u. The password is left blank
// so an untouched edit keeps the stored one.
func UserFormFrom(u *api.HotspotUser) *UserForm {
	server := u.Server
	if server == "" {
		server = "all"
	}
	return &UserForm{
		Server:     server,
		Name:       u.Name,
		MacAddress: u.MacAddress,
		Profile:    u.Profile,
		TimeLimit:  u.TimeLimit,
		DataLimit:  u.DataLimit,
		Comment:    u.Comment,
	}
}

func (f *UserForm) trim() {
	f.Name = strings.TrimSpace(f.Name)
	f.Password = strings.TrimSpace(f.Password)
	f.Profile = strings.TrimSpace(f.Profile)
}

// ValidateCreate requires name, password and profile.
func (f *UserForm) ValidateCreate() error {
	f.trim()
	return check(userCreate{Name: f.Name, Password: f.Password, Profile: f.Profile}, userLabels)
}

// ValidateEdit requires a profile; the password may stay blank.
func (f *UserForm) ValidateEdit() error {
	f.trim()
	return check(userEdit{Profile: f.Profile}, userLabels)
}

// Payload returns the request body. A blank password is left out.
func (f *UserForm) Payload() api.UserPayload {
	return api.UserPayload{
		Server:     f.Server,
		Name:       f.Name,
		Password:   f.Password,
		MacAddress: f.MacAddress,
		Profile:    f.Profile,
		TimeLimit:  f.TimeLimit,
		DataLimit:  f.DataLimit,
		Comment:    f.Comment,
	}
}
