package seed

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE []byte

// Error codes for dataset loading.
const (
	ErrCodeNotFound    = "S001" // Path not found
	ErrCodeFormat      = "S002" // Unsupported file type
	ErrCodeParse       = "S003" // YAML or CUE syntax error
	ErrCodeLoadFailed  = "S004" // CUE package load failed
	ErrCodeBuildFailed = "S005" // CUE build failed
	ErrCodeSchema      = "S006" // Dataset violates the schema
)

// LoadError is a dataset that could not be read or failed the schema.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// A cue.Context is not safe for concurrent use.
var (
	cueMu  sync.Mutex
	cueCtx *cue.Context
	schema cue.Value
)

func dataset() cue.Value {
	if cueCtx == nil {
		cueCtx = cuecontext.New()
		schema = cueCtx.CompileBytes(schemaCUE, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Dataset"))
	}
	return schema
}

// ParseCUE compiles a single CUE file and decodes it into a Dataset.
func ParseCUE(data []byte, name string) (*Dataset, error) {
	cueMu.Lock()
	defer cueMu.Unlock()

	def := dataset()
	v := cueCtx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, fromCUE(ErrCodeParse, err)
	}
	return decode(def, v)
}

// LoadCUEDir loads every .cue file of dir as one package.
func LoadCUEDir(dir string) (*Dataset, error) {
	cueMu.Lock()
	defer cueMu.Unlock()

	def := dataset()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fromCUE(ErrCodeLoadFailed, inst.Err)
	}
	v := cueCtx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, fromCUE(ErrCodeBuildFailed, err)
	}
	return decode(def, v)
}

func decode(def, v cue.Value) (*Dataset, error) {
	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fromCUE(ErrCodeSchema, err)
	}
	var ds Dataset
	if err := unified.Decode(&ds); err != nil {
		return nil, fromCUE(ErrCodeSchema, err)
	}
	return &ds, nil
}

// checkSchema validates a dataset decoded from another format.
func checkSchema(ds *Dataset) error {
	cueMu.Lock()
	defer cueMu.Unlock()

	def := dataset()
	v := cueCtx.Encode(ds)
	if err := v.Err(); err != nil {
		return fromCUE(ErrCodeSchema, err)
	}
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fromCUE(ErrCodeSchema, err)
	}
	return nil
}

// fromCUE keeps the first error's position and joins all messages.
func fromCUE(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: err.Error()}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		le.Pos = errs[0].Position()
		le.Message = cueerrors.Details(err, nil)
	}
	return le
}
