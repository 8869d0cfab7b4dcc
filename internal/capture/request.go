package capture

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Command names accepted by Execute.
const (
	CommandStillCapture        = "still_capture"
	CommandAutofocusMode       = "af_mode"
	CommandAutofocusTrigger    = "af_trigger"
	CommandConfidenceThreshold = "confidence_threshold"
	CommandDeviceReset         = "device_reset"
	CommandISP3A               = "isp_3a"
)

// Request is a named capture command with loosely typed parameters, as
// received from MQTT or the HTTP API.
//
// Parameters by command:
//
//	af_mode               {"mode": "continuous_video"} or {"mode": 2}
//	confidence_threshold  {"threshold": 200}
//	isp_3a                {"camera_id": 0, "command_id": 7, "args": "foo"}
type Request struct {
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Execute runs a named request against the Commander.
//
// Returns:
//   - error: ErrUnknownCommand, ErrInvalidParameters, or the SendISP3A error
func (c *Commander) Execute(req Request) error {
	switch req.Command {
	case CommandStillCapture:
		c.Capture()
	case CommandAutofocusTrigger:
		c.TriggerAutofocus()
	case CommandDeviceReset:
		c.SendDeviceReset()

	case CommandAutofocusMode:
		mode, err := autofocusModeParam(req.Parameters)
		if err != nil {
			return err
		}
		c.SetAutofocusMode(mode)

	case CommandConfidenceThreshold:
		threshold, err := intParam(req.Parameters, "threshold")
		if err != nil {
			return err
		}
		if threshold < 0 || threshold > math.MaxUint8 {
			return fmt.Errorf("%w: threshold %d out of range 0-255", ErrInvalidParameters, threshold)
		}
		c.SendConfidenceThreshold(uint8(threshold)) //nolint:gosec // range checked above

	case CommandISP3A:
		cameraID, err := intParam(req.Parameters, "camera_id")
		if err != nil {
			return err
		}
		commandID, err := intParam(req.Parameters, "command_id")
		if err != nil {
			return err
		}
		args, err := optionalStringParam(req.Parameters, "args")
		if err != nil {
			return err
		}
		return c.SendISP3A(cameraID, commandID, args)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, req.Command)
	}
	return nil
}

// autofocusModeParam reads "mode" as either a mode name or its numeric value.
func autofocusModeParam(params map[string]any) (AutofocusMode, error) {
	raw, ok := params["mode"]
	if !ok {
		return 0, fmt.Errorf("%w: missing mode", ErrInvalidParameters)
	}
	if name, isString := raw.(string); isString {
		return ParseAutofocusMode(name)
	}
	n, err := intParam(params, "mode")
	if err != nil {
		return 0, err
	}
	mode := AutofocusMode(n) //nolint:gosec // validated against the known set below
	if _, known := autofocusModeNames[mode]; !known || n < 0 {
		return 0, fmt.Errorf("%w: unknown autofocus mode %d", ErrInvalidParameters, n)
	}
	return mode, nil
}

// intParam reads an integer parameter. JSON numbers arrive as float64 and
// must be whole.
func intParam(params map[string]any, key string) (int, error) {
	raw, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidParameters, key)
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
			return 0, fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidParameters, key, v)
		}
		return int(v), nil
	case json.Number:
		n, err := strconv.Atoi(v.String())
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer, got %s", ErrInvalidParameters, key, v)
		}
		return n, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidParameters, key, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %s has unsupported type %T", ErrInvalidParameters, key, raw)
	}
}

// optionalStringParam reads a string parameter, returning "" when absent.
func optionalStringParam(params map[string]any, key string) (string, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidParameters, key, raw)
	}
	return s, nil
}

// Commanders maps stream names to their Commander. It is built once at
// startup and only read afterwards.
type Commanders map[string]*Commander

// Lookup returns the Commander bound to a stream name.
func (cs Commanders) Lookup(stream string) (*Commander, error) {
	c, ok := cs[stream]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStream, stream)
	}
	return c, nil
}

// Names returns the configured stream names in sorted order.
func (cs Commanders) Names() []string {
	names := make([]string, 0, len(cs))
	for name := range cs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
