package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyContact(t *testing.T) {
	cases := []struct {
		contact string
		want    ContactKind
	}{
		{"user@example.com", ContactEmail},
		{"first.last@sub.domain.org", ContactEmail},
		{"+917620101655", ContactPhone},
		{"9876543210", ContactPhone},
		{"+123", ContactInvalid},          // too short
		{"12345678901234567", ContactInvalid}, // too long
		{"not-a-contact", ContactInvalid},
		{"", ContactInvalid},
		{"user@", ContactInvalid},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyContact(tc.contact), "contact %q", tc.contact)
	}
}

func TestIsNotifiable(t *testing.T) {
	assert.True(t, IsNotifiable("user@example.com"))
	assert.True(t, IsNotifiable("+917620101655"))
	assert.False(t, IsNotifiable("garbage"))
}

func TestDelivered(t *testing.T) {
	for _, s := range []string{"queued", "sent", "delivered", "sent_fast2sms", "sent_simulated"} {
		assert.True(t, Delivered(s), s)
	}
	assert.False(t, Delivered("undelivered"))
	assert.False(t, Delivered(""))
}
