package domain

// SendMessageCommand carries a client's intent to message another user.
// To is a display name, resolved by the router before persistence.
type SendMessageCommand struct {
	Sender  Identity
	To      string
	Content string
}

// HistoryCommand asks for the full thread between the viewer and a counterparty.
type HistoryCommand struct {
	ViewerID string
	With     string
}
