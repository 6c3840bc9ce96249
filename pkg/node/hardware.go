package node

import "net"

// interfaceLister enumerates the host's network interfaces.
type interfaceLister func() ([]net.Interface, error)

// Option configures a hardware source.
type Option func(*hardwareSource)

// WithLogger reports which interface was selected.
func WithLogger(logger Logger) Option {
	return func(s *hardwareSource) {
		s.logger = logger
	}
}

func withLister(list interfaceLister) Option {
	return func(s *hardwareSource) {
		s.list = list
	}
}

type hardwareSource struct {
	name   string
	list   interfaceLister
	logger Logger
}

// Hardware returns a Source backed by the MAC address of the first interface
// that is up and not a loopback device.
func Hardware(opts ...Option) Source {
	return newHardwareSource("", opts)
}

// NamedHardware returns a Source backed by the MAC address of the named
// interface. The interface does not have to be up.
func NamedHardware(name string, opts ...Option) Source {
	return newHardwareSource(name, opts)
}

func newHardwareSource(name string, opts []Option) *hardwareSource {
	s := &hardwareSource{name: name, list: net.Interfaces}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *hardwareSource) Resolve() (ID, error) {
	ifaces, err := s.list()
	if err != nil {
		return 0, &EnumerationError{Err: err}
	}
	iface, err := s.pick(ifaces)
	if err != nil {
		return 0, err
	}
	if len(iface.HardwareAddr) != Size {
		return 0, &AddressLengthError{Interface: iface.Name, Len: len(iface.HardwareAddr)}
	}
	id, _ := FromBytes(iface.HardwareAddr)
	s.debugf("node id %d from interface %s (%s)", id, iface.Name, iface.HardwareAddr)
	return id, nil
}

func (s *hardwareSource) pick(ifaces []net.Interface) (net.Interface, error) {
	if s.name != "" {
		for _, iface := range ifaces {
			if iface.Name == s.name {
				return iface, nil
			}
		}
		return net.Interface{}, &InterfaceNotFoundError{Name: s.name}
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagLoopback == 0 {
			return iface, nil
		}
	}
	return net.Interface{}, ErrNoViableInterface
}

func (s *hardwareSource) debugf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Debugf(format, args...)
	}
}
