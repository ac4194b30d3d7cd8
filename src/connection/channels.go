package connection

// -----------------------------------------------------------------------------
// Logical stream names map to the vendor's channel tags.
// -----------------------------------------------------------------------------

var streamChannels = map[string][]string{
	"trades":  {"T"},
	"quotes":  {"Q"},
	"bars":    {"A", "AM"},
	"updates": {"T", "Q", "A"},
}

// ChannelsForStream returns the vendor channel tags for a logical stream
// name. Unknown streams default to trades.
func ChannelsForStream(stream string) []string {
	if channels, ok := streamChannels[stream]; ok {
		out := make([]string, len(channels))
		copy(out, channels)
		return out
	}
	return []string{"T"}
}
