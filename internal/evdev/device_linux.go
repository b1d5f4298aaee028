//go:build linux

package evdev

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

type absInfo struct {
	Value      int32
	Min        int32
	Max        int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// ioctl request encoding (Linux _IOC macro)
const (
	iocNRShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30

	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, nr, size uint32) uint {
	return uint(dir<<iocDirShift | uint32('E')<<iocTypeShift | nr<<iocNRShift | size<<iocSizeShift)
}

// EVIOCGABS(abs) = _IOR('E', 0x40 + abs, struct input_absinfo)
func evioCGAbs(code int) uint {
	return ioc(iocRead, uint32(0x40+code), uint32(unsafe.Sizeof(absInfo{})))
}

// EVIOCGRAB = _IOW('E', 0x90, int)
func evioCGrab() uint { return ioc(iocWrite, 0x90, 4) }

// EVIOCGNAME(len) = _IOC(_IOC_READ, 'E', 0x06, len)
func evioCGName(n int) uint { return ioc(iocRead, 0x06, uint32(n)) }

// EVIOCGPROP(len) = _IOC(_IOC_READ, 'E', 0x09, len)
func evioCGProp(n int) uint { return ioc(iocRead, 0x09, uint32(n)) }

// EVIOCGBIT(ev, len) = _IOC(_IOC_READ, 'E', 0x20 + ev, len)
func evioCGBit(ev, n int) uint { return ioc(iocRead, uint32(0x20+ev), uint32(n)) }

func ioctlPtr(fd int, req uint, p unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(p))
	if errno != 0 {
		return errno
	}
	return nil
}

func getAbsInfo(fd, code int) (Axis, error) {
	var info absInfo
	if err := ioctlPtr(fd, evioCGAbs(code), unsafe.Pointer(&info)); err != nil {
		return Axis{}, err
	}
	return Axis{Min: info.Min, Max: info.Max, Resolution: info.Resolution}, nil
}

type bitset []byte

func (b bitset) has(bit int) bool {
	return bit/8 < len(b) && b[bit/8]&(1<<(bit%8)) != 0
}

func getBits(fd int, req uint, size int) bitset {
	b := make(bitset, size)
	if err := ioctlPtr(fd, req, unsafe.Pointer(&b[0])); err != nil {
		return nil
	}
	return b
}

// Device is an open /dev/input/event* node.
type Device struct {
	path string
	fd   int
	dec  *Decoder
}

// Open opens path and prepares a decoder mapping absolute axes onto a
// width x height surface. With grab the device is taken exclusively so the
// local desktop stops seeing its events.
func Open(path string, width, height float32, grab bool) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("evdev: open %s: %w", path, err)
	}
	info := probe(fd)
	if info.Kind == KindUnknown {
		unix.Close(fd)
		return nil, fmt.Errorf("evdev: %s (%s): %w", path, info.Name, ErrUnsupportedDevice)
	}
	d := &Device{path: path, fd: fd, dec: NewDecoder(info, width, height)}
	if grab {
		if err := d.Grab(true); err != nil {
			unix.Close(fd)
			return nil, err
		}
	}
	return d, nil
}

// Grab takes or releases the device exclusively.
func (d *Device) Grab(enabled bool) error {
	v := 0
	if enabled {
		v = 1
	}
	if err := unix.IoctlSetInt(d.fd, evioCGrab(), v); err != nil {
		return fmt.Errorf("evdev: grab %s: %w", d.path, err)
	}
	return nil
}

func probe(fd int) Info {
	var info Info

	name := make([]byte, 256)
	if err := ioctlPtr(fd, evioCGName(len(name)), unsafe.Pointer(&name[0])); err == nil {
		info.Name = string(bytes.TrimRight(name, "\x00"))
	}

	props := getBits(fd, evioCGProp(4), 4)
	evs := getBits(fd, evioCGBit(0, 4), 4)
	keys := getBits(fd, evioCGBit(evKey, keyCnt/8), keyCnt/8)
	abs := getBits(fd, evioCGBit(evAbs, absCnt/8), absCnt/8)
	rel := getBits(fd, evioCGBit(evRel, 2), 2)

	caps := Capabilities{
		Direct:     props.has(inputPropDirect),
		MultiTouch: abs.has(absMTPositionX),
		AbsXY:      abs.has(absX) && abs.has(absY),
		Pen:        keys.has(btnToolPen),
		RelXY:      rel.has(relX) && rel.has(relY),
		Alphabetic: keys.has(keyA),
		Keys:       evs.has(evKey),
	}
	info.Kind = Classify(caps)
	info.MultiTouch = caps.MultiTouch && info.Kind != KindPen
	info.Alphabetic = caps.Alphabetic

	xCode, yCode, pCode := absX, absY, absPressure
	if info.MultiTouch {
		xCode, yCode, pCode = absMTPositionX, absMTPositionY, absMTPressure
	}
	info.X, _ = getAbsInfo(fd, xCode)
	info.Y, _ = getAbsInfo(fd, yCode)
	if abs.has(pCode) {
		info.Pressure, _ = getAbsInfo(fd, pCode)
	}
	if abs.has(absTiltX) && abs.has(absTiltY) {
		info.TiltX, _ = getAbsInfo(fd, absTiltX)
		info.TiltY, _ = getAbsInfo(fd, absTiltY)
	}
	return info
}

// Path returns the device node path.
func (d *Device) Path() string { return d.path }

// Decoder returns the device's decoder; set its callbacks before Run.
func (d *Device) Decoder() *Decoder { return d.dec }

// eventSize is sizeof(struct input_event): a timeval followed by type,
// code and value.
var eventSize = int(unsafe.Sizeof(unix.Timeval{})) + 8

// Run reads events until ctx is done or the device fails.
func (d *Device) Run(ctx context.Context) error {
	buf := make([]byte, eventSize*64)
	fds := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN}}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := unix.Poll(fds, 100)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("evdev: poll %s: %w", d.path, err)
		}
		if n == 0 {
			continue
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			return fmt.Errorf("evdev: %s: %w", d.path, ErrDeviceGone)
		}
		n, err = unix.Read(d.fd, buf)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("evdev: read %s: %w", d.path, err)
		}
		for off := 0; off+eventSize <= n; off += eventSize {
			d.dec.Feed(parseEvent(buf[off : off+eventSize]))
		}
	}
}

func parseEvent(b []byte) RawEvent {
	tv := eventSize - 8
	var sec, usec int64
	if tv == 16 {
		sec = int64(binary.LittleEndian.Uint64(b[0:8]))
		usec = int64(binary.LittleEndian.Uint64(b[8:16]))
	} else {
		sec = int64(int32(binary.LittleEndian.Uint32(b[0:4])))
		usec = int64(int32(binary.LittleEndian.Uint32(b[4:8])))
	}
	return RawEvent{
		Time:  time.Unix(sec, usec*1000),
		Type:  binary.LittleEndian.Uint16(b[tv : tv+2]),
		Code:  binary.LittleEndian.Uint16(b[tv+2 : tv+4]),
		Value: int32(binary.LittleEndian.Uint32(b[tv+4 : tv+8])),
	}
}

// Close releases the grab and closes the node.
func (d *Device) Close() error {
	unix.IoctlSetInt(d.fd, evioCGrab(), 0)
	if err := unix.Close(d.fd); err != nil {
		return fmt.Errorf("evdev: close %s: %w", d.path, err)
	}
	return nil
}
