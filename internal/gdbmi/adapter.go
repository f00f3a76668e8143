package gdbmi

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sbancuz/fit/internal/events"
	"github.com/sbancuz/fit/internal/fiterr"
	"github.com/sbancuz/fit/internal/logging"
	"github.com/sbancuz/fit/internal/target"
)

// State is the inferior execution state owned by the Debugger Adapter
// (spec.md §3 "Inferior state").
type State int

const (
	StateStarting State = iota
	StateRunning
	StateInterrupted
	StateExited
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateInterrupted:
		return "Interrupted"
	case StateExited:
		return "Exited"
	default:
		return "Unknown"
	}
}

// Config configures a new Adapter.
type Config struct {
	GDBPath      string
	Executable   string
	Embedded     bool
	BoardFamily  BoardFamily
	Remote       string // "host:port", empty when not attaching remotely
	WordBytes    int
	LittleEndian bool
	Logger       *logging.Logger
}

// Adapter translates high-level operations into GDB/MI commands and
// tracks the inferior state machine described in spec.md §4.3.
type Adapter struct {
	ctrl   *Controller
	cfg    Config
	logger *logging.Logger

	state    State
	registry *events.Registry

	registerIndex map[string]int
	registerOrder []string
}

// New spawns gdb against cfg.Executable with `-q --nx --interpreter=mi3`,
// enables mi-async, optionally attaches to a remote target, performs the
// first reset, and queries the register name list — exactly the
// construction sequence spec.md §4.3 describes.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	if cfg.WordBytes <= 0 {
		cfg.WordBytes = 4
	}
	args := []string{"-q", "--nx", "--interpreter=mi3", cfg.Executable}
	tr, err := Spawn(cfg.GDBPath, args, cfg.Logger)
	if err != nil {
		return nil, fiterr.IOWrap("new", err, "spawning gdb")
	}

	a := &Adapter{
		ctrl:     NewController(tr, cfg.Logger),
		cfg:      cfg,
		logger:   cfg.Logger,
		state:    StateStarting,
		registry: events.New(),
	}

	if _, err := a.ctrl.Write(ctx, "-gdb-set mi-async on", []map[string]any{{"type": "result"}}, false); err != nil {
		return nil, fiterr.ProtocolWrap("new", err, "enabling mi-async")
	}

	if cfg.Remote != "" {
		if _, err := a.ctrl.Write(ctx, fmt.Sprintf("-target-select extended-remote %s", cfg.Remote),
			[]map[string]any{{"type": "result"}}, false); err != nil {
			return nil, fiterr.IOWrap("new", err, "attaching to remote %s", cfg.Remote)
		}
	}

	if err := a.Reset(ctx); err != nil {
		return nil, err
	}

	if err := a.loadRegisterNames(ctx); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *Adapter) loadRegisterNames(ctx context.Context) error {
	recs, err := a.ctrl.Write(ctx, "-data-list-register-names", []map[string]any{{"type": "result", "message": "done"}}, true)
	if err != nil {
		return fiterr.ProtocolWrap("list_registers", err, "listing register names")
	}
	names := lastResultPayload(recs, "register-names")
	list, _ := names.([]any)
	a.registerIndex = make(map[string]int, len(list))
	a.registerOrder = make([]string, 0, len(list))
	for i, v := range list {
		name, _ := v.(string)
		if name == "" {
			continue
		}
		a.registerOrder = append(a.registerOrder, name)
		a.registerIndex[strings.ToLower(name)] = i
	}
	return nil
}

func lastResultPayload(recs []*Record, key string) any {
	for i := len(recs) - 1; i >= 0; i-- {
		if recs[i].Type == TypeResult && recs[i].Payload != nil {
			if v, ok := recs[i].Payload[key]; ok {
				return v
			}
		}
	}
	return nil
}

// Reset returns the adapter to Interrupted with all breakpoints and
// events cleared, per spec.md §4.3's two reset shapes.
func (a *Adapter) Reset(ctx context.Context) error {
	if a.state == StateRunning {
		return fiterr.Protocol("reset", "invalid state transition: reset requires not Running, got %v", a.state)
	}

	if _, err := a.ctrl.Write(ctx, "-break-delete", []map[string]any{{"type": "result"}}, false); err != nil {
		return fiterr.ProtocolWrap("reset", err, "clearing breakpoints")
	}

	var err error
	if a.cfg.Embedded {
		err = a.resetEmbedded(ctx)
	} else {
		err = a.resetHosted(ctx)
	}
	if err != nil {
		return fiterr.ProtocolWrap("reset", err, "reset sequence")
	}

	a.registry.Clear()
	a.state = StateInterrupted
	return nil
}

// SetEvent registers location (a function name, label, or "*0xADDR") as
// a named breakpoint event, per spec.md §4.7.
func (a *Adapter) SetEvent(ctx context.Context, name, location string) error {
	if a.state == StateRunning {
		return fiterr.Protocol("set_event", "invalid state transition: set_event requires not Running, got %v", a.state)
	}
	recs, err := a.ctrl.Write(ctx, fmt.Sprintf("-break-insert %s", location),
		[]map[string]any{{"type": "result", "message": "done"}}, true)
	if err != nil {
		return fiterr.ProtocolWrap("set_event", err, "inserting breakpoint at %s", location)
	}
	bkpt, _ := lastResultPayload(recs, "bkpt").(map[string]any)
	if bkpt == nil {
		return fiterr.Protocol("set_event", "break-insert response carried no bkpt payload")
	}
	idStr, _ := bkpt["number"].(string)
	id, _ := strconv.Atoi(idStr)
	addr, _ := bkpt["addr"].(string)
	a.registry.Register(events.Breakpoint{ID: id, Address: addr, Name: name})
	return nil
}

// Run starts or resumes the inferior via -exec-continue. In blocking
// mode it waits (subject to ctx's deadline/cancellation) for a stop
// notification and returns the resolved event name, or events.ResultTimeout
// if ctx expires first — in which case the adapter remains in Running
// and the caller MUST call Interrupt to restore Interrupted before doing
// anything else (spec.md §4.6's cancellation note). In non-blocking mode
// it only drains already-buffered output and returns events.ResultUnknown
// if no stop has happened yet.
func (a *Adapter) Run(ctx context.Context, blocking bool) (string, error) {
	if a.state != StateInterrupted {
		return "", fiterr.Protocol("run", "invalid state transition: run requires Interrupted, got %v", a.state)
	}
	if err := a.ctrl.tr.Write("-exec-continue"); err != nil {
		return "", fiterr.IOWrap("run", err, "writing -exec-continue")
	}
	a.state = StateRunning

	if !blocking {
		return a.drainNonBlocking()
	}
	return a.waitForStop(ctx)
}

func (a *Adapter) drainNonBlocking() (string, error) {
	for {
		line, ok := a.ctrl.tr.TryNextLine()
		if !ok {
			return events.ResultUnknown, nil
		}
		name, matched, err := a.processStopLine(line)
		if err != nil {
			return "", err
		}
		if matched {
			return name, nil
		}
	}
}

func (a *Adapter) waitForStop(ctx context.Context) (string, error) {
	for {
		line, ok := a.ctrl.tr.NextLine(ctx)
		if !ok {
			if ctx.Err() != nil {
				return events.ResultTimeout, nil
			}
			return "", fiterr.IO("run", "connection closed while waiting for stop")
		}
		name, matched, err := a.processStopLine(line)
		if err != nil {
			return "", err
		}
		if matched {
			return name, nil
		}
	}
}

func (a *Adapter) processStopLine(line string) (name string, matched bool, err error) {
	rec, perr := ParseLine(line)
	if perr != nil {
		if a.logger != nil {
			a.logger.Warn("gdbmi: failed to parse line", "line", line, "error", perr.Error())
		}
		return "", false, nil
	}
	if rec == nil {
		return "", false, nil
	}
	if rec.IsError() {
		return "", false, fiterr.Protocol("run", "MI error: %s", rec.ErrorMessage())
	}
	if rec.Type != TypeNotify || rec.Message != "stopped" {
		return "", false, nil
	}

	reason, _ := rec.Payload["reason"].(string)
	switch reason {
	case "exited-normally":
		a.state = StateExited
		return events.ResultExit, true, nil
	case "breakpoint-hit":
		a.state = StateInterrupted
		idStr, _ := rec.Payload["bkptno"].(string)
		id, _ := strconv.Atoi(idStr)
		return a.registry.NameForID(id), true, nil
	default:
		a.state = StateInterrupted
		return events.ResultUnknown, true, nil
	}
}

// Interrupt suspends a Running inferior, resolving to a breakpoint name
// if the stop coincides with a registered event, or events.ResultUnknown
// otherwise.
func (a *Adapter) Interrupt(ctx context.Context) (string, error) {
	if a.state != StateRunning {
		return "", fiterr.Protocol("interrupt", "invalid state transition: interrupt requires Running, got %v", a.state)
	}
	if err := a.ctrl.tr.Write("-exec-interrupt --all"); err != nil {
		return "", fiterr.IOWrap("interrupt", err, "writing -exec-interrupt")
	}
	return a.waitForStop(ctx)
}

// ForceInterrupt is Interrupt without the Running-state precondition
// check, used by the Run Controller to recover from a cancelled blocking
// run where the adapter's Go-side state is still nominally Running.
func (a *Adapter) ForceInterrupt(ctx context.Context) error {
	if err := a.ctrl.tr.Write("-exec-interrupt --all"); err != nil {
		return fiterr.IOWrap("interrupt", err, "writing -exec-interrupt")
	}
	_, err := a.waitForStop(ctx)
	return err
}

// Close terminates the inferior and the GDB child process. Valid only
// when not Running.
func (a *Adapter) Close(ctx context.Context) error {
	if a.state == StateRunning {
		return fiterr.Protocol("close", "invalid state transition: close requires not Running, got %v", a.state)
	}
	_, _ = a.ctrl.Write(ctx, "-target-kill", []map[string]any{{"type": "result"}}, false)
	return a.ctrl.tr.Close()
}

// State reports the current inferior state.
func (a *Adapter) State() State { return a.state }

// WordBytes reports the configured machine word size in bytes.
func (a *Adapter) WordBytes() int { return a.cfg.WordBytes }

// IsRegister reports whether name (case-insensitive) is one of the
// inferior's registers, the RegisterLookup target.Parse needs to resolve
// spec.md §3's Variable/Register textual ambiguity.
func (a *Adapter) IsRegister(name string) bool {
	_, ok := a.registerIndex[strings.ToLower(name)]
	return ok
}

// readWordsRaw is the low-level memory read shared by Reset's STM32 DHCSR
// poll and ReadMemory, bypassing the Interrupted-state precondition
// (DHCSR polling happens mid-reset, before the adapter is considered
// Interrupted).
func (a *Adapter) readWordsRaw(ctx context.Context, addr uint64, count, wordBytes int) ([]uint64, error) {
	if wordBytes <= 0 {
		wordBytes = a.cfg.WordBytes
	}
	recs, err := a.ctrl.Write(ctx, fmt.Sprintf("-data-read-memory-bytes 0x%x %d", addr, count),
		[]map[string]any{{"type": "result", "message": "done"}}, true)
	if err != nil {
		return nil, err
	}
	return decodeMemoryResult(recs, count, wordBytes, a.cfg.LittleEndian, a.logger)
}

func decodeMemoryResult(recs []*Record, count, wordBytes int, littleEndian bool, logger *logging.Logger) ([]uint64, error) {
	raw := lastResultPayload(recs, "memory")
	list, _ := raw.([]any)
	chunks := make([]MemoryChunk, 0, len(list))
	for _, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		chunks = append(chunks, MemoryChunk{
			Begin:    parseHexAddr(m["begin"]),
			End:      parseHexAddr(m["end"]),
			Offset:   parseHexAddr(m["offset"]),
			Contents: fmt.Sprintf("%v", m["contents"]),
		})
	}
	words, warnings := ParseMemoryChunks(chunks, count, wordBytes, littleEndian)
	if logger != nil {
		for _, w := range warnings {
			logger.Warn("gdbmi: memory read", "detail", w)
		}
	}
	return words, nil
}

func parseHexAddr(v any) uint64 {
	s, _ := v.(string)
	s = strings.TrimPrefix(s, "0x")
	n, _ := strconv.ParseUint(s, 16, 64)
	return n
}

// ReadMemory reads count bytes starting at addr, chunked into
// wordBytes-wide words (0 selects the adapter's configured word size),
// requiring Interrupted.
func (a *Adapter) ReadMemory(ctx context.Context, addr uint64, count, wordBytes int) ([]uint64, error) {
	if a.state != StateInterrupted {
		return nil, fiterr.Protocol("read_memory", "invalid state: read requires Interrupted, got %v", a.state)
	}
	return a.readWordsRaw(ctx, addr, count, wordBytes)
}

// WriteMemory writes words (packed wordBytes-wide, target endianness; 0
// selects the adapter's configured word size) to addr, requiring
// Interrupted.
func (a *Adapter) WriteMemory(ctx context.Context, addr uint64, words []uint64, wordBytes int) error {
	if a.state != StateInterrupted {
		return fiterr.Protocol("write_memory", "invalid state: write requires Interrupted, got %v", a.state)
	}
	if wordBytes <= 0 {
		wordBytes = a.cfg.WordBytes
	}
	hexPayload := EncodeMemoryWrite(words, wordBytes, a.cfg.LittleEndian)
	_, err := a.ctrl.Write(ctx, fmt.Sprintf("-data-write-memory-bytes 0x%x %s", addr, hexPayload),
		[]map[string]any{{"type": "result", "message": "done"}}, false)
	if err != nil {
		return fiterr.ProtocolWrap("write_memory", err, "writing %d word(s) at 0x%x", len(words), addr)
	}
	return nil
}

// ReadRegister reads one register by case-insensitive name, requiring
// Interrupted. Vector/special registers (no `value` field) are fatal.
func (a *Adapter) ReadRegister(ctx context.Context, name string) (uint64, error) {
	if a.state != StateInterrupted {
		return 0, fiterr.Protocol("read_register", "invalid state: read requires Interrupted, got %v", a.state)
	}
	idx, ok := a.registerIndex[strings.ToLower(name)]
	if !ok {
		return 0, fiterr.Protocol("read_register", "unknown register %q", name)
	}

	recs, err := a.ctrl.Write(ctx, "-data-list-register-values d", []map[string]any{{"type": "result", "message": "done"}}, true)
	if err != nil {
		return 0, fiterr.ProtocolWrap("read_register", err, "listing register values")
	}
	raw := lastResultPayload(recs, "register-values")
	list, _ := raw.([]any)
	for _, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		numStr, _ := m["number"].(string)
		n, _ := strconv.Atoi(numStr)
		if n != idx {
			continue
		}
		valStr, ok := m["value"].(string)
		if !ok {
			return 0, fiterr.Protocol("read_register", "register %q has no scalar value (vector/special register)", name)
		}
		n64, err := strconv.ParseInt(valStr, 0, 64)
		if err != nil {
			return 0, fiterr.ProtocolWrap("read_register", err, "parsing register %q value %q", name, valStr)
		}
		return uint64(n64), nil
	}
	return 0, fiterr.Protocol("read_register", "register %q (index %d) missing from register-values", name, idx)
}

// WriteRegister writes value to the named register, requiring
// Interrupted.
func (a *Adapter) WriteRegister(ctx context.Context, name string, value uint64) error {
	if a.state != StateInterrupted {
		return fiterr.Protocol("write_register", "invalid state: write requires Interrupted, got %v", a.state)
	}
	if _, ok := a.registerIndex[strings.ToLower(name)]; !ok {
		return fiterr.Protocol("write_register", "unknown register %q", name)
	}
	cmd := fmt.Sprintf(`-interpreter-exec console "set $%s=0x%x"`, name, value)
	_, err := a.ctrl.Write(ctx, cmd, []map[string]any{{"type": "result", "message": "done"}}, false)
	if err != nil {
		return fiterr.ProtocolWrap("write_register", err, "writing register %q", name)
	}
	return nil
}

// ListMappings runs "info proc mappings" and parses the memory map,
// per spec.md §4.3.
func (a *Adapter) ListMappings(ctx context.Context) ([]target.Mapping, error) {
	if a.state != StateInterrupted {
		return nil, fiterr.Protocol("list_mappings", "invalid state: list_mappings requires Interrupted, got %v", a.state)
	}
	recs, err := a.ctrl.Write(ctx, `-interpreter-exec console "info proc mappings"`,
		[]map[string]any{{"type": "result"}}, true)
	if err != nil {
		return nil, fiterr.ProtocolWrap("list_mappings", err, "running info proc mappings")
	}

	var sb strings.Builder
	for _, rec := range recs {
		if rec.Type == TypeConsole {
			sb.WriteString(rec.Stream)
		}
	}
	rawLines := strings.Split(sb.String(), "\n")
	lines := make([]string, 0, len(rawLines))
	for _, l := range rawLines {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) <= 3 {
		return nil, nil
	}
	lines = lines[3:]

	var mappings []target.Mapping
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 5 {
			if a.logger != nil {
				a.logger.Warn("gdbmi: mapping line has fewer than five fields, skipping", "line", line)
			}
			continue
		}
		start := parseHexAddr(fields[0])
		end := parseHexAddr(fields[1])
		permsField := fields[4]
		var perms target.Permissions
		for _, c := range permsField {
			switch c {
			case 'r':
				perms |= target.PermRead
			case 'w':
				perms |= target.PermWrite
			case 'x':
				perms |= target.PermExec
			case 'p':
				perms |= target.PermPrivate
			}
		}
		name := ""
		if len(fields) > 5 {
			name = strings.Join(fields[5:], " ")
		}
		mappings = append(mappings, target.Mapping{Start: start, End: end, Perms: perms, Name: name})
	}
	return mappings, nil
}
