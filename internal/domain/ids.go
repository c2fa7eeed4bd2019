package domain

// Identity newtypes keep platform ids and archive ids from being mixed up.
type (
	TicketID  string
	MessageID string
	UserID    string
	GuildID   string
	RoleID    string
	ChannelID string
)

func (id TicketID) String() string  { return string(id) }
func (id MessageID) String() string { return string(id) }
func (id UserID) String() string    { return string(id) }
func (id GuildID) String() string   { return string(id) }
func (id RoleID) String() string    { return string(id) }
func (id ChannelID) String() string { return string(id) }
