package form

import (
	"fmt"
	"strings"

	"mikrodesk/internal/api"
	pkgerrors "mikrodesk/pkg/errors"
)

// Connect form field keys.
const (
	FieldName           = "name"
	FieldHost           = "host"
	FieldUser           = "user"
	FieldPassword       = "password"
	FieldHotspotName    = "hotspotName"
	FieldDNSName        = "dnsName"
	FieldCurrency       = "currency"
	FieldSessionTimeout = "sessionTimeout"
)

// ConnectFields lists the text inputs of the connect form in display order.
var ConnectFields = []string{
	FieldName, FieldHost, FieldUser, FieldPassword,
	FieldHotspotName, FieldDNSName, FieldCurrency, FieldSessionTimeout,
}

var connectLabels = map[string]string{
	FieldName:           "Router name",
	FieldHost:           "Host IP",
	FieldUser:           "Username",
	FieldPassword:       "Password",
	FieldHotspotName:    "Hotspot name",
	FieldDNSName:        "DNS name",
	FieldCurrency:       "Currency",
	FieldSessionTimeout: "Session timeout",
}

// Label returns the display label of a connect form field.
func Label(field string) string {
	return connectLabels[field]
}

type connectValues struct {
	Name           string `form:"name" validate:"required"`
	Host           string `form:"host" validate:"required"`
	User           string `form:"user" validate:"required"`
	Password       string `form:"password" validate:"required"`
	HotspotName    string `form:"hotspotName" validate:"required"`
	DNSName        string `form:"dnsName" validate:"required"`
	Currency       string `form:"currency" validate:"required"`
	SessionTimeout string `form:"sessionTimeout" validate:"required"`
}

// ConnectForm collects router connection details. Errors are only reported
// for fields the operator has touched, until a submit touches them all.
type ConnectForm struct {
	values     map[string]string
	touched    map[string]bool
	LiveReport bool
}

// NewConnectForm returns an empty form with live reporting on.
func NewConnectForm() *ConnectForm {
	return &ConnectForm{
		values:     make(map[string]string, len(ConnectFields)),
		touched:    make(map[string]bool, len(ConnectFields)),
		LiveReport: true,
	}
}

// FromRouter prefills a form from a saved router. Nothing is touched.
func FromRouter(r *api.Router) *ConnectForm {
	f := NewConnectForm()
	f.values[FieldName] = r.Name
	f.values[FieldHost] = r.Host
	f.values[FieldUser] = r.Username
	f.values[FieldPassword] = r.Password
	f.values[FieldHotspotName] = r.HotspotName
	f.values[FieldDNSName] = r.DNSName
	f.values[FieldCurrency] = r.Currency
	f.values[FieldSessionTimeout] = r.SessionTimeout
	f.LiveReport = r.LiveReport
	return f
}

func knownField(field string) bool {
	_, ok := connectLabels[field]
	return ok
}

// Set stores a value and marks the field touched.
func (f *ConnectForm) Set(field, value string) error {
	if !knownField(field) {
		return fmt.Errorf("unknown connect field %q", field)
	}
	f.values[field] = value
	f.touched[field] = true
	return nil
}

// Get returns the current value of field.
func (f *ConnectForm) Get(field string) string {
	return f.values[field]
}

// Touch marks field as visited, as on blur.
func (f *ConnectForm) Touch(field string) {
	if knownField(field) {
		f.touched[field] = true
	}
}

// Touched reports whether field has been visited.
func (f *ConnectForm) Touched(field string) bool {
	return f.touched[field]
}

func (f *ConnectForm) trimmed() connectValues {
	get := func(k string) string { return strings.TrimSpace(f.values[k]) }
	return connectValues{
		Name:           get(FieldName),
		Host:           get(FieldHost),
		User:           get(FieldUser),
		Password:       get(FieldPassword),
		HotspotName:    get(FieldHotspotName),
		DNSName:        get(FieldDNSName),
		Currency:       get(FieldCurrency),
		SessionTimeout: get(FieldSessionTimeout),
	}
}

func (f *ConnectForm) validate() map[string]string {
	err := check(f.trimmed(), connectLabels)
	if verr, ok := err.(*pkgerrors.ValidationError); ok {
		return verr.Fields
	}
	return nil
}

// Errors returns messages for touched fields only.
func (f *ConnectForm) Errors() map[string]string {
	all := f.validate()
	out := make(map[string]string)
	for field, msg := range all {
		if f.touched[field] {
			out[field] = msg
		}
	}
	return out
}

// Error returns the message shown under field, if any.
func (f *ConnectForm) Error(field string) string {
	return f.Errors()[field]
}

// Valid reports whether every field passes, touched or not.
func (f *ConnectForm) Valid() bool {
	return len(f.validate()) == 0
}

// Submit touches every field and returns the request parameters, or a
// ValidationError naming every empty field.
func (f *ConnectForm) Submit() (api.ConnectParams, error) {
	for _, field := range ConnectFields {
		f.touched[field] = true
	}
	if errs := f.validate(); len(errs) > 0 {
		return api.ConnectParams{}, pkgerrors.NewValidationError(errs)
	}
	v := f.trimmed()
	return api.ConnectParams{
		Name:           v.Name,
		Host:           v.Host,
		User:           v.User,
		Password:       v.Password,
		HotspotName:    v.HotspotName,
		DNSName:        v.DNSName,
		Currency:       v.Currency,
		SessionTimeout: v.SessionTimeout,
		LiveReport:     f.LiveReport,
	}, nil
}

// Reset clears values and touched flags.
func (f *ConnectForm) Reset() {
	*f = *NewConnectForm()
}
