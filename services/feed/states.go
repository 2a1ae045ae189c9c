package feed

type state int

const (
	disconnected state = iota // The feed service has not yet attempted to establish a connection to the websocket feed.
	connecting                // The feed service is attempting to establish a connection to the websocket feed.
	connected                 // The feed service has connected to the websocket feed.
	subscribed                // The feed service has received acknowledgement of its channel subscriptions.
)

func (o state) String() string {
	return [...]string{"disconnected", "connecting", "connected", "subscribed"}[o]
}
