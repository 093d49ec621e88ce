package node

import (
	"encoding/json"

	"github.com/colorfulnotion/pvmhost/common"
	"github.com/colorfulnotion/pvmhost/framework"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

func changeSides(changes []framework.StateChange) (left, right map[string]interface{}) {
	left = make(map[string]interface{}, len(changes))
	right = make(map[string]interface{}, len(changes))
	for _, c := range changes {
		k := c.Key.Hex()
		if len(c.Before) > 0 {
			left[k] = common.Bytes2Hex(c.Before)
		}
		if c.After != nil {
			right[k] = common.Bytes2Hex(c.After)
		}
	}
	return left, right
}

// StateDiff renders the committed writes of a receipt as an ASCII JSON diff
// of the touched keys. It is empty when nothing changed.
func StateDiff(receipt *framework.Receipt, coloring bool) (string, error) {
	left, right := changeSides(receipt.Changes)
	lj, err := json.Marshal(left)
	if err != nil {
		return "", err
	}
	rj, err := json.Marshal(right)
	if err != nil {
		return "", err
	}
	delta, err := gojsondiff.New().Compare(lj, rj)
	if err != nil {
		return "", err
	}
	if !delta.Modified() {
		return "", nil
	}
	var leftObj interface{}
	if err := json.Unmarshal(lj, &leftObj); err != nil {
		return "", err
	}
	cfg := formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       coloring,
	}
	return formatter.NewAsciiFormatter(leftObj, cfg).Format(delta)
}
