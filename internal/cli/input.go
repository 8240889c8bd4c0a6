// Package cli is an interactive loop for trying a dictionary from the
// terminal: type a preedit, see its candidate pages.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bastiangx/tableserve/pkg/dictionary"
	"github.com/bastiangx/tableserve/pkg/session"
	"github.com/charmbracelet/log"
)

// InputHandler reads preedits and commands line by line.
//
//	:open <backend> <path>   switch dictionary
//	:save                    keep the open dictionary as the default
//	:stats                   print session counters
//	:q                       quit
type InputHandler struct {
	session    session.ISession
	opts       dictionary.Options
	maxPreedit int
	verbose    bool
	in         io.Reader
	out        io.Writer
	save       SaveFunc
	requests   int
}

// SaveFunc persists the dictionary a session has open.
type SaveFunc func(backend string, opts dictionary.Options) error

// NewInputHandler creates a handler driving sess. opts supplies widening
// start and max candidates for :open.
func NewInputHandler(sess session.ISession, opts dictionary.Options, maxPreedit int, verbose bool, in io.Reader, out io.Writer) *InputHandler {
	return &InputHandler{
		session:    sess,
		opts:       opts,
		maxPreedit: maxPreedit,
		verbose:    verbose,
		in:         in,
		out:        out,
	}
}

// WithSave enables :save.
func (h *InputHandler) WithSave(fn SaveFunc) *InputHandler {
	h.save = fn
	return h
}

// Start runs the loop until :q or the end of input.
func (h *InputHandler) Start() error {
	fmt.Fprintln(h.out, titleStyle.Render("tableserve CLI"))
	fmt.Fprintln(h.out, hintStyle.Render("type keys and press Enter, :open <backend> <path> to switch, :q to quit"))

	scanner := bufio.NewScanner(h.in)
	for {
		fmt.Fprint(h.out, promptStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(h.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if quit := h.handleCommand(line); quit {
				return nil
			}
			continue
		}
		h.handleInput(line)
	}
}

func (h *InputHandler) handleCommand(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":q", ":quit":
		return true
	case ":open":
		if len(fields) != 3 {
			log.Errorf("Usage: :open <backend> <path>")
			return false
		}
		opts := h.opts
		opts.Path = fields[2]
		if err := h.session.Open(fields[1], opts); err != nil {
			log.Errorf("Open failed: %v", err)
			return false
		}
		h.opts = opts
		fmt.Fprintf(h.out, "opened %s (%s) as %s\n", opts.Path, describeFormat(opts.Path), h.session.Backend())
	case ":save":
		if h.save == nil {
			log.Errorf("Saving is not available")
			return false
		}
		backend := h.session.Backend()
		if backend == "" || h.opts.Path == "" {
			log.Errorf("No dictionary open")
			return false
		}
		if err := h.save(backend, h.opts); err != nil {
			log.Errorf("Save failed: %v", err)
			return false
		}
		fmt.Fprintf(h.out, "saved %s as default %s dictionary\n", h.opts.Path, backend)
	case ":stats":
		fmt.Fprintln(h.out, renderStats(h.session.Stats()))
	default:
		log.Errorf("Unknown command: %s", fields[0])
	}
	return false
}

func (h *InputHandler) handleInput(preedit string) {
	h.requests++
	if h.maxPreedit > 0 && len(preedit) > h.maxPreedit {
		log.Errorf("Preedit too long: %s", preedit)
		return
	}

	start := time.Now()
	res := h.session.Lookup(preedit)
	elapsed := time.Since(start)
	log.Debugf("Took [ %v ] for preedit '%s'", elapsed, preedit)

	if res.Matches == 0 {
		fmt.Fprintln(h.out, hintStyle.Render(fmt.Sprintf("no candidates for '%s'", preedit)))
		return
	}
	fmt.Fprint(h.out, renderPages(res))
	if h.verbose {
		records, err := h.session.Records(preedit)
		if err != nil {
			log.Errorf("Records for '%s': %v", preedit, err)
		}
		fmt.Fprint(h.out, renderRecords(records))
		fmt.Fprintln(h.out, hintStyle.Render(fmt.Sprintf("%d candidates in %v", res.Matches, elapsed)))
	}
}

func describeFormat(path string) string {
	format, err := dictionary.DetectFileFormat(path)
	if err != nil {
		return "unknown format"
	}
	info, ok := dictionary.GetFormatInfo(format)
	if !ok {
		return format.String()
	}
	return info.Description
}
