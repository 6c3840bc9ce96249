package node

import (
	"errors"
	"fmt"
)

var (
	// ErrNoViableInterface indicates no interface is both up and non-loopback.
	ErrNoViableInterface = errors.New("node: no viable network interface")
	// ErrInterfaceNotFound indicates a named interface does not exist.
	ErrInterfaceNotFound = errors.New("node: interface not found")
	// ErrEnumeration indicates the platform refused to list interfaces.
	ErrEnumeration = errors.New("node: interface enumeration failed")
	// ErrInvalidAddressLength indicates a hardware address that is not 6 bytes.
	ErrInvalidAddressLength = errors.New("node: invalid hardware address length")
	// ErrOutOfRange indicates a fixed value wider than 48 bits.
	ErrOutOfRange = errors.New("node: value exceeds 48 bits")
	// ErrNilSource indicates Once was given no source to wrap.
	ErrNilSource = errors.New("node: nil source")
)

// InterfaceNotFoundError reports the name that failed to resolve.
type InterfaceNotFoundError struct {
	Name string
	Err  error
}

func (e *InterfaceNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("node: interface %q not found: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("node: interface %q not found", e.Name)
}

func (e *InterfaceNotFoundError) Is(target error) bool { return target == ErrInterfaceNotFound }

func (e *InterfaceNotFoundError) Unwrap() error { return e.Err }

// EnumerationError wraps the error returned by the platform call.
type EnumerationError struct {
	Err error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("node: interface enumeration failed: %v", e.Err)
}

func (e *EnumerationError) Is(target error) bool { return target == ErrEnumeration }

func (e *EnumerationError) Unwrap() error { return e.Err }

// AddressLengthError reports a hardware address of the wrong size.
type AddressLengthError struct {
	Interface string
	Len       int
}

func (e *AddressLengthError) Error() string {
	if e.Interface == "" {
		return fmt.Sprintf("node: hardware address is %d bytes, want %d", e.Len, Size)
	}
	return fmt.Sprintf("node: hardware address of %q is %d bytes, want %d", e.Interface, e.Len, Size)
}

func (e *AddressLengthError) Is(target error) bool { return target == ErrInvalidAddressLength }
