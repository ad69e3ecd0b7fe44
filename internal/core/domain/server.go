package domain

// ServerConfig holds the parameters for one conferencing session.
// Values are copied from configuration at startup and never mutated.
type ServerConfig struct {
	Host            string
	TCPPort         int
	UDPPort         int
	Nickname        string
	ServerPassword  string
	Username        string
	UserPassword    string
	ChannelPath     string
	ChannelPassword string
}
