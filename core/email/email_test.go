package email_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/core/email"
)

func TestSendEmailParams_Validate(t *testing.T) {
	t.Parallel()

	ok := email.SendEmailParams{SendTo: "sales@example.com", Subject: "New RFQ", BodyText: "hi"}
	require.NoError(t, ok.Validate())

	bad := ok
	bad.SendTo = "nope"
	assert.ErrorIs(t, bad.Validate(), email.ErrInvalidParams)

	bad = ok
	bad.BodyText = ""
	assert.ErrorIs(t, bad.Validate(), email.ErrInvalidParams)

	bad = ok
	bad.ReplyTo = "x@"
	assert.ErrorIs(t, bad.Validate(), email.ErrInvalidParams)

	assert.True(t, email.IsValidAddress("a@b.co"))
	assert.False(t, email.IsValidAddress("A <a@b.co>"))
}

func TestDevSender(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "mail")
	s := email.NewDevSender(dir)

	err := s.SendEmail(context.Background(), email.SendEmailParams{
		SendTo:   "sales@example.com",
		Subject:  "New RFQ RFQ-20260101-ABC123",
		Tag:      "rfq",
		BodyText: "3 items",
	})
	require.NoError(t, err)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)

	var exts []string
	for _, f := range files {
		exts = append(exts, filepath.Ext(f.Name()))
	}
	assert.ElementsMatch(t, []string{".txt", ".json"}, exts)
}
