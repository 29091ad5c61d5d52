package output

import (
	"encoding/json"
	"io"

	bsimv1 "github.com/onai/SMTexperiments/api/v1"
)

// JsonOutput writes one JSON document per parameter, wrapped with its kind.
type JsonOutput struct {
	Pretty bool
}

type envelope struct {
	Kind string           `json:"kind"`
	Data bsimv1.Parameter `json:"data"`
}

func (p *JsonOutput) OutputParam(par bsimv1.Parameter, w io.Writer) error {
	var (
		data []byte
		err  error
	)
	env := envelope{Kind: par.Kind(), Data: par}
	if p.Pretty {
		data, err = json.MarshalIndent(env, "", "    ")
	} else {
		data, err = json.Marshal(env)
	}
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
