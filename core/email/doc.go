// Package email defines the EmailSender abstraction used for notifications.
//
// Production wires the Postmark sender from integration/email/postmark;
// development uses DevSender, which writes each message to disk.
package email
