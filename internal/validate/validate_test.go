package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPhone(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"+34 612 345 678", true},
		{"+1 (415) 555-0134", true},
		{"447911123456", true},
		{"+30.210.555.1234", true},
		{"0612345678", false},
		{"+12345", false},
		{"+1234567890123456", false},
		{"phone", false},
		{"", false},
		{"+34 612 345 67a", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.want, Phone(tc.in))
		})
	}
	require.Equal(t, "34612345678", PhoneDigits("+34 612-345-678"))
}

func TestEmail(t *testing.T) {
	require.True(t, Email("ana@example.com"))
	require.True(t, Email(" ana.ruiz+charter@mail.example.co.uk "))
	require.False(t, Email("Ana <ana@example.com>"))
	require.False(t, Email("ana@localhost"))
	require.False(t, Email("ana@example."))
	require.False(t, Email("not-an-email"))
}

func TestRegistration_Validate(t *testing.T) {
	ok := Registration{
		Name:            "Ana Ruiz",
		Email:           "ana@example.com",
		Phone:           "+34 612 345 678",
		Password:        "sailaway1",
		ConfirmPassword: "sailaway1",
	}
	require.NoError(t, ok.Validate())

	bad := ok
	bad.Name = " "
	bad.Phone = "123"
	bad.ConfirmPassword = "different"
	err := bad.Validate()
	require.Error(t, err)

	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	require.Contains(t, fe, "name")
	require.Contains(t, fe, "phone")
	require.Contains(t, fe, "confirm_password")
	require.NotContains(t, fe, "email")

	short := ok
	short.Password, short.ConfirmPassword = "abc", "abc"
	require.ErrorAs(t, short.Validate(), &fe)
	require.Contains(t, fe, "password")
}

func TestEnquiry_Validate(t *testing.T) {
	guests := -1
	e := Enquiry{
		GuestName: "Tom",
		Boat:      "Aurora",
		StartDate: "2024-06-10",
		EndDate:   "2024-06-01",
		Guests:    &guests,
	}
	var fe FieldErrors
	require.ErrorAs(t, e.Validate(), &fe)
	require.Equal(t, "End date must not be before start date", fe["end_date"])
	require.Contains(t, fe, "guests")

	minimal := Enquiry{GuestName: "Tom", Boat: "Aurora"}
	require.NoError(t, minimal.Validate())

	badDate := Enquiry{GuestName: "Tom", Boat: "Aurora", StartDate: "10/06/2024"}
	require.ErrorAs(t, badDate.Validate(), &fe)
	require.Contains(t, fe, "start_date")
}

func TestFieldErrors_ErrorIsStable(t *testing.T) {
	fe := FieldErrors{"b": "two", "a": "one"}
	require.Equal(t, "invalid input: a: one; b: two", fe.Error())
	require.NoError(t, FieldErrors{}.Err())
}
