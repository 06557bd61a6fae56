package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"plant-doctor-be/pkg/diagnosis"
)

// DoneData is the data of the sentinel frame that ends every stream.
const DoneData = "[DONE]"

// Encode renders one event as a frame:
//
//	id: <seq>
//	event: <type>
//	data: <json>
//	<blank line>
func Encode(ev diagnosis.Event) ([]byte, error) {
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", ev.Type, err)
	}

	var buf bytes.Buffer
	if ev.Seq > 0 {
		fmt.Fprintf(&buf, "id: %d\n", ev.Seq)
	}
	fmt.Fprintf(&buf, "event: %s\n", ev.Type)
	for _, line := range strings.Split(string(data), "\n") {
		fmt.Fprintf(&buf, "data: %s\n", line)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Done returns the sentinel frame.
func Done() []byte {
	return []byte("data: " + DoneData + "\n\n")
}

// Comment returns a comment frame. Clients ignore it; it keeps proxies from
// closing an idle stream and surfaces a dead connection on write.
func Comment(text string) []byte {
	return []byte(": " + text + "\n\n")
}
