package comm

import (
	"math"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/iosamurai/pkg/framework"
	"github.com/robotalks/iosamurai/pkg/l0/checksum"
	"github.com/robotalks/iosamurai/pkg/l0/regs"
)

// DefaultTimeout is the default receive timeout of a cycle.
const DefaultTimeout = time.Second

// Session runs update cycles against one device.
// Update is meant to be called from a single goroutine. Registers, Stats,
// State and ResetCursors are safe to use from others.
type Session struct {
	// Timeout bounds the wait for a response in each cycle.
	Timeout time.Duration

	transport Transport
	regs      *regs.Registers
	name      string

	cycleLock sync.Mutex
	out       *checksum.Cursor
	inp       *checksum.Cursor
	watchdog  Watchdog
	buf       []byte
	cond      *regs.Conditioner
	calibrate bool

	statsLock sync.RWMutex
	state     State
	last      State
	connected bool
	stats     Stats
	analog    float64
	hasAnalog bool
}

// NewSession creates a Session over transport. Both cursors start at
// checksum.InitialIndex.
func NewSession(transport Transport, table *checksum.Table) *Session {
	return &Session{
		Timeout:   DefaultTimeout,
		transport: transport,
		regs:      regs.New(),
		out:       checksum.NewCursor(table),
		inp:       checksum.NewCursor(table),
		buf:       make([]byte, MaxDatagramSize),
	}
}

// WithName sets the name of the session.
func (s *Session) WithName(name string) *Session {
	s.name = name
	return s
}

// WithWatchdog configures the watchdog.
func (s *Session) WithWatchdog(limit int, resetCursors bool) *Session {
	s.cycleLock.Lock()
	s.watchdog = Watchdog{Limit: limit, ResetCursors: resetCursors}
	s.cycleLock.Unlock()
	return s
}

// WithConditioner conditions the analog sample of every validated
// response. With calibrate, regs.ADCCalibration is applied first.
func (s *Session) WithConditioner(cond *regs.Conditioner, calibrate bool) *Session {
	s.cycleLock.Lock()
	s.cond, s.calibrate = cond, calibrate
	s.cycleLock.Unlock()
	return s
}

// Name implements framework.Named.
func (s *Session) Name() string {
	return s.name
}

// Registers returns the register model exchanged with the device.
func (s *Session) Registers() *regs.Registers {
	return s.regs
}

// Table returns the checksum table shared by both cursors.
func (s *Session) Table() *checksum.Table {
	return s.out.Table()
}

// State returns the current position in the cycle.
func (s *Session) State() State {
	s.statsLock.RLock()
	defer s.statsLock.RUnlock()
	return s.state
}

// LastOutcome returns the outcome of the last completed cycle,
// StateIdle if there's none yet.
func (s *Session) LastOutcome() State {
	s.statsLock.RLock()
	defer s.statsLock.RUnlock()
	return s.last
}

// Stats returns a copy of the statistics.
func (s *Session) Stats() Stats {
	s.statsLock.RLock()
	defer s.statsLock.RUnlock()
	return s.stats
}

// Connected tells whether the watchdog considers the link up.
func (s *Session) Connected() bool {
	s.statsLock.RLock()
	defer s.statsLock.RUnlock()
	return s.connected
}

// CursorIndices returns the indices of the outbound and inbound cursors.
func (s *Session) CursorIndices() (out, inp byte) {
	s.cycleLock.Lock()
	defer s.cycleLock.Unlock()
	return s.out.Index(), s.inp.Index()
}

// ResetCursors moves both cursors back to checksum.InitialIndex.
// The device must be reset as well for packets to validate again.
// If a cycle is in progress, the reset happens after it completes.
func (s *Session) ResetCursors() {
	s.cycleLock.Lock()
	s.resetCursors()
	s.cycleLock.Unlock()
}

func (s *Session) resetCursors() {
	s.out.Reset()
	s.inp.Reset()
	glog.Infof("%s: checksum cursors reset", s.logName())
}

// ConditionedAnalog returns the last value of the conditioner, false if
// there's no conditioner or no validated response yet.
func (s *Session) ConditionedAnalog() (float64, bool) {
	s.statsLock.RLock()
	defer s.statsLock.RUnlock()
	return s.analog, s.hasAnalog
}

// Snapshot captures registers and link status. Analog is the
// conditioned value when a conditioner is set.
func (s *Session) Snapshot() regs.Snapshot {
	snapshot := s.regs.Snapshot()
	s.statsLock.RLock()
	snapshot.Connected = s.connected
	snapshot.State = s.last.String()
	if s.hasAnalog {
		snapshot.Analog = s.analog
	}
	s.statsLock.RUnlock()
	return snapshot
}

// Update runs one cycle: it sends the outputs, then waits for one
// response and, if it validates, stores the inputs.
// It returns the outcome and the errors of the cycle. A failed send is
// reported but doesn't prevent the receive, so the outcome can be
// StateValidated with a non-nil *TransportError.
// A *ChecksumMismatchError means the cursors are out of sync, and every
// later cycle fails the same way until both ends reset their cursors.
func (s *Session) Update() (State, error) {
	s.cycleLock.Lock()
	defer s.cycleLock.Unlock()

	var errs fx.AggregatedError

	s.setState(StateSending)
	req := (&Request{Outputs: s.regs.Outputs()}).Seal(s.out)
	sendErr := s.transport.Send(req.Bytes())
	s.statsLock.Lock()
	if sendErr != nil {
		s.stats.SendErrors++
	} else {
		s.stats.Sent++
	}
	s.statsLock.Unlock()
	if sendErr != nil {
		glog.Warningf("%s: %v", s.logName(), sendErr)
		errs.Add(sendErr)
	} else if glog.V(4) {
		glog.Infof("%s: SND % X", s.logName(), req.Bytes())
	}

	s.setState(StateAwaitingResponse)
	outcome, recvErr := s.receive()
	errs.Add(recvErr)

	expired := s.watchdog.Observe(outcome == StateValidated)
	if expired {
		glog.Warningf("%s: link lost after %d failed cycles", s.logName(), s.watchdog.Misses())
		if s.watchdog.ResetCursors {
			s.resetCursors()
		}
	}

	err := errs.Aggregate()
	s.statsLock.Lock()
	s.state, s.last = StateIdle, outcome
	s.connected = s.watchdog.Alive()
	s.stats.record(outcome)
	if err != nil {
		s.stats.LastError = err.Error()
	} else {
		s.stats.LastError = ""
	}
	s.statsLock.Unlock()
	return outcome, err
}

func (s *Session) receive() (State, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	n, from, err := s.transport.Receive(s.buf, timeout)
	if err != nil {
		// socket failures are handled like a missing response
		return StateTimedOut, err
	}
	if from != nil {
		s.statsLock.Lock()
		s.stats.LastSource = from.String()
		s.statsLock.Unlock()
	}
	packet := s.buf[:n]
	if glog.V(4) {
		glog.Infof("%s: RCV % X from %v", s.logName(), packet, from)
	}
	// the inbound cursor only moves for packets of the right size
	resp, err := ParseResponse(packet)
	if err != nil {
		return StateMalformed, err
	}
	if err = resp.Verify(s.inp); err != nil {
		glog.Errorf("%s: %v", s.logName(), err)
		return StateChecksumMismatch, err
	}
	s.regs.SetInputs(resp.Inputs)
	if s.cond != nil {
		s.condition(resp.Inputs)
	}
	return StateValidated, nil
}

func (s *Session) condition(inputs uint32) {
	// the firmware sets flags above the 12-bit sample
	sample := float64(regs.AnalogSampleOf(inputs) & regs.AnalogNativeMax)
	if s.calibrate {
		sample = math.Max(0, math.Min(regs.AnalogNativeMax, regs.ADCCalibration.Apply(sample)))
	}
	val := s.cond.Condition(uint16(math.Round(sample)))
	s.statsLock.Lock()
	s.analog, s.hasAnalog = val, true
	s.statsLock.Unlock()
}

func (s *Session) setState(state State) {
	s.statsLock.Lock()
	s.state = state
	s.statsLock.Unlock()
}

func (s *Session) logName() string {
	if s.name != "" {
		return s.name
	}
	return "session"
}

// Control implements framework.Controller, running one cycle per loop
// iteration. Transient errors are only logged.
func (s *Session) Control(fx.ControlContext) error {
	_, err := s.Update()
	if err != nil && IsTransient(err) {
		glog.V(2).Infof("%s: %v", s.logName(), err)
		return nil
	}
	return err
}

// AddToLoop implements framework.LoopAdder.
func (s *Session) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvSense, s)
}

// Close releases the transport.
func (s *Session) Close() error {
	return s.transport.Close()
}
