package counsel

// Session identifies one conversation. ID is empty until the backend
// creates the conversation server-side and delivers the identifier via a
// meta envelope on the first exchange.
type Session struct {
	ID    string
	Title string
}
