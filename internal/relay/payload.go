package relay

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/tamzrod/valve-bridge/internal/snapshot"
)

// Fields are the JSON keys one channel receives, in wire order.
type Fields struct {
	Homing     string
	Main       string
	SingleStep string
}

// Encode renders one newline-terminated JSON object holding exactly the
// three channel fields, in order, with ", " and ": " separators:
//
//	{"b_Homing_E": true, "w_Main_EV": 7, "b_SingleStep_E": false}\n
func Encode(f Fields, v snapshot.Values) []byte {
	var b bytes.Buffer

	b.WriteByte('{')
	writeKey(&b, f.Homing)
	b.WriteString(strconv.FormatBool(v.Homing))
	b.WriteString(", ")
	writeKey(&b, f.Main)
	b.WriteString(strconv.Itoa(v.Main))
	b.WriteString(", ")
	writeKey(&b, f.SingleStep)
	b.WriteString(strconv.FormatBool(v.SingleStep))
	b.WriteString("}\n")

	return b.Bytes()
}

func writeKey(b *bytes.Buffer, k string) {
	// Marshal of a string cannot fail.
	q, _ := json.Marshal(k)
	b.Write(q)
	b.WriteString(": ")
}
