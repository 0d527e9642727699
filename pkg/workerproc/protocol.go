// Package workerproc implements the parallel executor's cross-process
// dispatch protocol: the coordinator re-execs its own binary with a hidden
// worker subcommand, feeds it a JSON envelope describing the step to build
// and run over stdin, and reads back a second JSON envelope with the
// step's post-run observables over stdout.
//
// The wire codec is encoding/json for the envelope shape itself;
// github.com/tidwall/gjson and github.com/tidwall/sjson patch individual
// production values into the envelope without round-tripping every
// production through a Go struct, matching the teacher's
// pkg/runner/helpers/json.go helpers — useful when a production's value is
// an opaque nested document a caller doesn't want this package to know the
// shape of.
package workerproc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/ridgeline-run/steprunner/pkg/step"
)

// ProtocolVersion is the wire format version this build of workerproc
// speaks. Bumped on any incompatible envelope shape change.
const ProtocolVersion = "1.0.0"

// protocolConstraint is what a coordinator accepts from a worker's
// handshake: same major version, any minor/patch. A coordinator built
// against a newer wire format refuses to talk to an older worker binary
// instead of misparsing its output.
var protocolConstraint = semver.MustParse(ProtocolVersion)

// CheckProtocol validates a worker-reported version string against this
// build's ProtocolVersion, requiring an exact major-version match.
func CheckProtocol(reported string) error {
	v, err := semver.NewVersion(reported)
	if err != nil {
		return fmt.Errorf("worker reported malformed protocol version %q: %w", reported, err)
	}
	if v.Major() != protocolConstraint.Major() {
		return fmt.Errorf("worker protocol version %s is incompatible with coordinator version %s", v, protocolConstraint)
	}
	return nil
}

// Request is what the coordinator writes to a worker's stdin: which class
// to build and the fully resolved constructor arguments for it.
type Request struct {
	ProtocolVersion string                 `json:"protocol_version"`
	DispatchID      string                 `json:"dispatch_id"`
	ClassName       string                 `json:"class_name"`
	Namespaces      []string               `json:"namespaces"`
	Args            map[string]interface{} `json:"args"`
}

// NewRequest builds a Request for className with a fresh dispatch ID, used
// to correlate the coordinator's dispatch log line with this worker's
// stderr output.
func NewRequest(className string, namespaces []string, args step.ConstructArgs) Request {
	return Request{
		ProtocolVersion: ProtocolVersion,
		DispatchID:      uuid.NewString(),
		ClassName:       className,
		Namespaces:      namespaces,
		Args:            map[string]interface{}(args),
	}
}

// Response is what a worker writes to stdout after running its step:
// everything the coordinator needs to fold back into RunData.
type Response struct {
	ProtocolVersion string                 `json:"protocol_version"`
	DispatchID      string                 `json:"dispatch_id"`
	ClassName       string                 `json:"class_name"`
	LastRunTime     *time.Time             `json:"last_run_time,omitempty"`
	Productions     map[string]interface{} `json:"productions"`
	Error           string                 `json:"error,omitempty"`
}

// Encode marshals v to its JSON wire form.
func Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeRequest parses a Request envelope.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("decode worker request: %w", err)
	}
	return req, nil
}

// DecodeResponse parses a Response envelope.
func DecodeResponse(data []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return Response{}, fmt.Errorf("decode worker response: %w", err)
	}
	return resp, nil
}

// PatchProduction sets a single production value inside an already-encoded
// Response envelope without re-marshaling the rest of it — useful for a
// step whose production is itself a large opaque JSON document the caller
// wants to splice in verbatim rather than decode into interface{} and
// re-encode.
func PatchProduction(envelope []byte, name string, value json.RawMessage) ([]byte, error) {
	return sjson.SetRawBytes(envelope, "productions."+name, value)
}

// ReadProduction extracts a single production's raw JSON from an
// already-encoded Response envelope, the read-side counterpart to
// PatchProduction.
func ReadProduction(envelope []byte, name string) (json.RawMessage, bool) {
	res := gjson.GetBytes(envelope, "productions."+name)
	if !res.Exists() {
		return nil, false
	}
	return json.RawMessage(res.Raw), true
}
