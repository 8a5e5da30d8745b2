// models/email.go
package models

type SenderIdentity struct {
	Name  string
	Email string
}

// RenderedEmail is a fully formed notification ready for dispatch.
type RenderedEmail struct {
	Recipient     string
	RecipientName string
	Subject       string
	HTMLBody      string
	TextBody      string
}

// DispatchResult reports what the email provider did with a RenderedEmail.
type DispatchResult struct {
	Provider  string
	MessageID string
	Err       error
}

func (r DispatchResult) Delivered() bool {
	return r.Err == nil
}
