package inspectflow

// PortDirection distinguishes input from output ports.
type PortDirection string

const (
	PortInput  PortDirection = "input"
	PortOutput PortDirection = "output"
)

// Port is a named, directed attachment point on a tool through which
// an artifact flows.
type Port struct {
	Name        string
	Direction   PortDirection
	Kind        DataKind
	Description string
}

// Default port names used when Connect is called without explicit
// port arguments.
const (
	DefaultOutputPort = "output"
	DefaultInputPort  = "input"
)

// DefaultInputPorts is the port set for tools that consume one image.
var DefaultInputPorts = []Port{
	{Name: DefaultInputPort, Direction: PortInput, Kind: DataKindImage, Description: "input image"},
}

// DefaultOutputPorts is the port set for tools that produce one image
// plus a result value.
var DefaultOutputPorts = []Port{
	{Name: DefaultOutputPort, Direction: PortOutput, Kind: DataKindImage, Description: "output image"},
	{Name: "result", Direction: PortOutput, Kind: DataKindValue, Description: "run result"},
}

func findPort(ports []Port, name string) (Port, bool) {
	for _, p := range ports {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}
