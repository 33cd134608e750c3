package form

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mikrodesk/internal/api"
	pkgerrors "mikrodesk/pkg/errors"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *pkgerrors.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	assert.ErrorIs(t, err, pkgerrors.ErrValidation)
	return verr.Fields
}

func TestConnectFormTouchedFields(t *testing.T) {
	f := NewConnectForm()
	assert.Empty(t, f.Errors(), "untouched form reports nothing")
	assert.False(t, f.Valid())

	f.Touch(FieldHost)
	require.NoError(t, f.Set(FieldName, "   "))
	errs := f.Errors()
	assert.Len(t, errs, 2)
	assert.Equal(t, "Router name is required", errs[FieldName])
	assert.Equal(t, "Host IP is required", errs[FieldHost])

	require.NoError(t, f.Set(FieldHost, "192.168.88.1"))
	assert.Empty(t, f.Error(FieldHost))

	assert.Error(t, f.Set("bogus", "x"))
}

func TestConnectFormSubmitTouchesAll(t *testing.T) {
	f := NewConnectForm()
	require.NoError(t, f.Set(FieldName, "shop"))

	_, err := f.Submit()
	fields := fieldErrors(t, err)
	assert.Len(t, fields, len(ConnectFields)-1)
	for _, field := range ConnectFields {
		assert.True(t, f.Touched(field), field)
	}
	assert.Equal(t, "Session timeout is required", f.Error(FieldSessionTimeout))
}

func TestConnectFormSubmitValid(t *testing.T) {
	f := NewConnectForm()
	values := map[string]string{
		FieldName: " shop ", FieldHost: "10.0.0.1", FieldUser: "admin", FieldPassword: "secret",
		FieldHotspotName: "hs1", FieldDNSName: "hot.spot", FieldCurrency: "LRD", FieldSessionTimeout: "1h",
	}
	for k, v := range values {
		require.NoError(t, f.Set(k, v))
	}
	f.LiveReport = false

	params, err := f.Submit()
	require.NoError(t, err)
	assert.Equal(t, "shop", params.Name)
	assert.Equal(t, "hot.spot", params.DNSName)
	assert.False(t, params.LiveReport)

	f.Reset()
	assert.Empty(t, f.Get(FieldName))
	assert.True(t, f.LiveReport)
}

func TestFromRouterPrefills(t *testing.T) {
	f := FromRouter(&api.Router{Name: "shop", Host: "h", Username: "u", Password: "p",
		HotspotName: "hs", DNSName: "d", Currency: "USD", SessionTimeout: "2h"})
	assert.True(t, f.Valid())
	assert.False(t, f.Touched(FieldName))
	assert.Equal(t, "u", f.Get(FieldUser))
}

func TestProfileFormPrices(t *testing.T) {
	tests := []struct {
		name         string
		price        string
		sellingPrice string
		wantFields   []string
	}{
		{"valid", "25", "30.5", nil},
		{"zero price", "0", "30", []string{"price"}},
		{"zero decimal", "0.00", "30", []string{"price"}},
		{"non numeric", "abc", "30", []string{"price"}},
		{"empty selling", "25", "", []string{"sellingPrice"}},
		{"negative", "-5", "-1", []string{"price", "sellingPrice"}},
		{"both empty", "", "", []string{"price", "sellingPrice"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewProfileForm()
			f.Name = "1hour"
			f.Price = tt.price
			f.SellingPrice = tt.sellingPrice
			err := f.Validate()
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			fields := fieldErrors(t, err)
			assert.Len(t, fields, len(tt.wantFields))
			for _, k := range tt.wantFields {
				assert.Contains(t, fields[k], "must be a number greater than 0")
			}
		})
	}
}

func TestProfileFormRequiresName(t *testing.T) {
	f := NewProfileForm()
	f.Price, f.SellingPrice = "1", "2"
	fields := fieldErrors(t, f.Validate())
	assert.Equal(t, "Profile name is required", fields["name"])
}

func TestProfileFormFromNormalizesLocks(t *testing.T) {
	f := ProfileFormFrom(&api.HotspotProfile{
		Name: "day", Price: 100, SellingPrice: 120.5, UserLock: "yes", ServerLock: "",
	})
	assert.Equal(t, LockEnabled, f.LockUser)
	assert.Equal(t, LockDisabled, f.LockServer)
	assert.Equal(t, "120.5", f.SellingPrice)
	require.NoError(t, f.Validate())

	p := f.Payload()
	assert.Equal(t, "100", p.Price)
	assert.Equal(t, "day", p.Name)
}

func TestUserFormCreate(t *testing.T) {
	f := NewUserForm()
	fields := fieldErrors(t, f.ValidateCreate())
	assert.Len(t, fields, 3)

	f.Name, f.Password, f.Profile = "alice", "pw", "1hour"
	assert.NoError(t, f.ValidateCreate())
	assert.Equal(t, "all", f.Payload().Server)
}

func TestUserFormEditAllowsBlankPassword(t *testing.T) {
	f := UserFormFrom(&api.HotspotUser{Name: "bob", Password: "old", Profile: "1day"})
	assert.Empty(t, f.Password)
	require.NoError(t, f.ValidateEdit())
	assert.Empty(t, f.Payload().Password)

	f.Profile = ""
	fields := fieldErrors(t, f.ValidateEdit())
	assert.Equal(t, "Profile is required", fields["profile"])
}

func TestVoucherFormLimits(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *VoucherForm)
		field  string
	}{
		{"count zero", func(f *VoucherForm) { f.Count = 0 }, "count"},
		{"count over", func(f *VoucherForm) { f.Count = 101 }, "count"},
		{"no profile", func(f *VoucherForm) { f.Profile = " " }, "profile"},
		{"short name", func(f *VoucherForm) { f.NameLength = 3 }, "nameLength"},
		{"long name", func(f *VoucherForm) { f.NameLength = 13 }, "nameLength"},
		{"short password", func(f *VoucherForm) { f.PasswordLength = 3 }, "passwordLength"},
		{"long password", func(f *VoucherForm) { f.PasswordLength = 13 }, "passwordLength"},
		{"bad charset", func(f *VoucherForm) { f.Characters = "emoji" }, "characters"},
		{"bad mode", func(f *VoucherForm) { f.UserMode = "mixed" }, "userMode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewVoucherForm()
			f.Profile = "1hour"
			tt.mutate(f)
			fields := fieldErrors(t, f.Validate())
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestVoucherFormLengthBounds(t *testing.T) {
	f := NewVoucherForm()
	f.Profile = "1hour"
	f.NameLength, f.PasswordLength = 4, 12
	assert.NoError(t, f.Validate())

	f.NameLength = 13
	fields := fieldErrors(t, f.Validate())
	assert.Equal(t, "Username length must be at most 12", fields["nameLength"])
}

func TestVoucherFormDefaultsValid(t *testing.T) {
	f := NewVoucherForm()
	f.Profile = "1hour"
	f.Count = 100
	require.NoError(t, f.Validate())
	req := f.Request()
	assert.Equal(t, "all", req.Server)
	assert.Equal(t, 6, req.NameLength)
	assert.Equal(t, "same", req.UserMode)
}
