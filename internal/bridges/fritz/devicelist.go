package fritz

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/nerrad567/switchsched/internal/device"
)

// outletBit marks devices with a switchable outlet in functionbitmask.
const outletBit = 1 << 9

type deviceList struct {
	XMLName xml.Name    `xml:"devicelist"`
	Devices []xmlDevice `xml:"device"`
}

type xmlDevice struct {
	Identifier      string     `xml:"identifier,attr"`
	FunctionBitmask int        `xml:"functionbitmask,attr"`
	ProductName     string     `xml:"productname,attr"`
	Present         string     `xml:"present"`
	Name            string     `xml:"name"`
	Switch          *xmlSwitch `xml:"switch"`
}

type xmlSwitch struct {
	State string `xml:"state"`
}

func parseDeviceList(body []byte) ([]device.Info, error) {
	var list deviceList
	if err := xml.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: device list: %w", ErrUnexpectedResponse, err)
	}

	infos := make([]device.Info, 0, len(list.Devices))
	for _, d := range list.Devices {
		info := device.Info{
			ID:      strings.TrimSpace(d.Identifier),
			Name:    d.Name,
			Product: d.ProductName,
			Present: d.Present == "1",
			State:   device.StateUnknown,
		}
		if d.FunctionBitmask&outletBit != 0 && d.Switch != nil {
			switch strings.TrimSpace(d.Switch.State) {
			case "1":
				info.State = device.StateOn
			case "0":
				info.State = device.StateOff
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}
