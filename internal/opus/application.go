package opus

import (
	"fmt"
	"strings"
)

// Application is the encoder operating mode hint. It is passed through to the codec.
type Application int

const (
	ApplicationAudio Application = iota + 1
	ApplicationVoIP
	ApplicationLowDelay
)

// ParseApplication maps "audio", "voip" or "lowdelay" to an Application.
func ParseApplication(s string) (Application, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "audio":
		return ApplicationAudio, nil
	case "voip":
		return ApplicationVoIP, nil
	case "lowdelay", "restricted_lowdelay":
		return ApplicationLowDelay, nil
	}
	return 0, fmt.Errorf("%w: unknown application %q", ErrInvalidConfig, s)
}

func (a Application) String() string {
	switch a {
	case ApplicationAudio:
		return "audio"
	case ApplicationVoIP:
		return "voip"
	case ApplicationLowDelay:
		return "lowdelay"
	}
	return fmt.Sprintf("Application(%d)", int(a))
}
