package cdphost

import (
	"encoding/json"
	"strings"
)

type evalEnvelope struct {
	OK           bool            `json:"ok"`
	Data         json.RawMessage `json:"data,omitempty"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

func jsString(v string) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func jsJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func buildIIFE(body string) string {
	return `(function(){
try {
` + body + `
} catch (err) {
return JSON.stringify({ok:false,error_code:"` + CodeEvalFailure + `",error_message:String(err && err.message || err)});
}
})()`
}

// callJS builds an expression invoking window.paneview[fn] and wrapping its
// result in an evaluation envelope.
func callJS(fn string, args ...any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = jsJSON(a)
	}
	return buildIIFE(`var pv = window.paneview;
if (!pv || typeof pv[` + jsString(fn) + `] !== "function") {
return JSON.stringify({ok:false,error_code:"` + CodeCDPUnavailable + `",error_message:"surface page not loaded"});
}
var out = pv[` + jsString(fn) + `](` + strings.Join(parts, ",") + `);
return JSON.stringify({ok:true,data:out === undefined ? null : out});`)
}

// decodeEnvelope unpacks an evaluation result into out.
func decodeEnvelope(raw string, out any) error {
	var env evalEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return newError(CodeEvalFailure, "invalid evaluation envelope", err)
	}
	if !env.OK {
		code := env.ErrorCode
		if code == "" {
			code = CodeEvalFailure
		}
		return newError(code, env.ErrorMessage, nil)
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return newError(CodeEvalFailure, "invalid evaluation data", err)
	}
	return nil
}
