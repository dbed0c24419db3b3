package engine

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
)

// StateOpen is the only port state counted as exposed.
const StateOpen = "open"

// XML structures for the scan report (nmap -oX layout).
type nmapRun struct {
	Hosts []nmapHost `xml:"host"`
}

type nmapHost struct {
	Ports []nmapPorts `xml:"ports"`
}

type nmapPorts struct {
	Ports []nmapPort `xml:"port"`
}

type nmapPort struct {
	PortID   string       `xml:"portid,attr"`
	Protocol string       `xml:"protocol,attr"`
	State    *nmapState   `xml:"state"`
	Service  *nmapService `xml:"service"`
}

type nmapState struct {
	State string `xml:"state,attr"`
}

type nmapService struct {
	Name string `xml:"name,attr"`
}

// ParseReportFile reads and parses the report at path.
// On failure it returns an empty snapshot and a *ReportError.
func ParseReportFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		kind := ReportIO
		if errors.Is(err, fs.ErrNotExist) {
			kind = ReportMissing
		}
		return Snapshot{}, &ReportError{Kind: kind, Path: path, Err: err}
	}
	snap, err := ParseReportBytes(data)
	if err != nil {
		var re *ReportError
		if errors.As(err, &re) {
			re.Path = path
		}
		return Snapshot{}, err
	}
	return snap, nil
}

// ParseReportBytes parses an in-memory report.
func ParseReportBytes(data []byte) (Snapshot, error) {
	return ParseReport(bytes.NewReader(data))
}

// ParseReport extracts every open service from a scan report document.
// Ports in any state other than exactly "open" are skipped.
func ParseReport(r io.Reader) (Snapshot, error) {
	var run nmapRun
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&run); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty document")
		}
		return Snapshot{}, &ReportError{Kind: ReportMalformed, Err: err}
	}
	if err := checkTrailing(dec); err != nil {
		return Snapshot{}, &ReportError{Kind: ReportMalformed, Err: err}
	}

	snap := make(Snapshot)
	for _, host := range run.Hosts {
		for _, ports := range host.Ports {
			for _, port := range ports.Ports {
				if port.State == nil || port.State.State != StateOpen {
					continue
				}
				id, err := port.serviceID()
				if err != nil {
					return Snapshot{}, &ReportError{Kind: ReportMalformed, Err: err}
				}
				snap.Add(id)
			}
		}
	}
	return snap, nil
}

// checkTrailing rejects anything after the root element other than
// whitespace, comments and processing instructions.
func checkTrailing(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return fmt.Errorf("junk after document element: %q", string(t))
			}
		default:
			return errors.New("junk after document element")
		}
	}
}

// serviceID only accepts the canonical decimal form of portid ("80", not " 080 ").
func (p nmapPort) serviceID() (ServiceID, error) {
	port, err := strconv.Atoi(p.PortID)
	if err != nil || strconv.Itoa(port) != p.PortID {
		return ServiceID{}, fmt.Errorf("invalid portid %q", p.PortID)
	}
	name := UnknownService
	if p.Service != nil && p.Service.Name != "" {
		name = p.Service.Name
	}
	return NewServiceID(port, name)
}
