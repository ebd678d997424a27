package tools

import (
	"context"
	"encoding/json"
	"net"
	"time"

	"github.com/inspect-labs/inspectflow"
	"github.com/inspect-labs/inspectflow/faults"
)

// ResultSenderSpec delivers the upstream result as one line of JSON
// over TCP. A connection is dialed per run; the receiving side is
// expected to read newline-delimited messages.
func ResultSenderSpec() inspectflow.ToolSpec {
	return inspectflow.ToolSpec{
		Category:    inspectflow.CategoryCommunication,
		Kind:        "ResultSender",
		Description: "sends the run result over TCP",
		InputPorts: []inspectflow.Port{
			{Name: inspectflow.DefaultInputPort, Direction: inspectflow.PortInput, Kind: inspectflow.DataKindValue, Description: "value to send"},
		},
		OutputPorts: []inspectflow.Port{
			{Name: "result", Direction: inspectflow.PortOutput, Kind: inspectflow.DataKindValue, Description: "run result"},
		},
		Params: []inspectflow.ParamSpec{
			{Name: "address", Kind: inspectflow.ParamString, Default: "", Description: "host:port"},
			{Name: "timeout_ms", Kind: inspectflow.ParamInt, Default: 2000, Min: 1, Max: 60000, HasBounds: true, Unit: "ms"},
		},
		CheckInput: func(in *inspectflow.Artifact) error {
			if !in.Valid() {
				return faults.New(faults.KindImage, "no result to send")
			}
			return nil
		},
		Body: func(ctx context.Context, in *inspectflow.Artifact, params map[string]any) (*inspectflow.Output, error) {
			addr := paramString(params, "address", "")
			if addr == "" {
				return nil, faults.New(faults.KindParameter, "address is not set")
			}
			timeout := time.Duration(paramInt(params, "timeout_ms", 2000)) * time.Millisecond

			msg := map[string]any{
				"kind": string(in.Kind),
				"time": in.Captured.UTC().Format(time.RFC3339Nano),
			}
			switch in.Kind {
			case inspectflow.DataKindValue:
				msg["value"] = in.Value
			case inspectflow.DataKindString:
				msg["text"] = in.Text
			case inspectflow.DataKindRect:
				msg["rect"] = in.Rect
			}
			for k, v := range in.Meta {
				msg[k] = v
			}
			line, err := json.Marshal(msg)
			if err != nil {
				return nil, faults.Newf(faults.KindInternal, "encode message: %v", err)
			}
			line = append(line, '\n')

			dialer := net.Dialer{Timeout: timeout}
			conn, err := dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				return nil, faults.Newf(faults.KindNetwork, "dial %s: %v", addr, err)
			}
			defer conn.Close()

			conn.SetWriteDeadline(time.Now().Add(timeout))
			if _, err := conn.Write(line); err != nil {
				return nil, faults.Newf(faults.KindNetwork, "send to %s: %v", addr, err)
			}
			return &inspectflow.Output{
				Values: map[string]any{"sent_bytes": len(line), "address": addr},
			}, nil
		},
	}
}
