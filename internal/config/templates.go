package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindText:
		return textTemplate, nil
	case KindProduct:
		return productTemplate, nil
	case KindCustom:
		return customTemplate, nil
	default:
		return "", fmt.Errorf("unknown design kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("design already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const textTemplate = `name = "Hello"
kind = "text"

[text]
content = "World"
`

const productTemplate = `name = "PharmaLabel_001"
kind = "product"

[product]
gtin = "08961101532710"
mfg = "012026"
exp = "012029"
batch = "153A26"
sn = "02750082604216564872"
barcode = "dynamic"
sn_date = true
`

const customTemplate = `name = "Lot"
kind = "custom"

[[sources]]
name = "lot-text"
type = "text"
content = "LOT 153A26"

[[sources]]
name = "lot-time"
type = "date"
date_format = ["HH", "mm"]

[[objects]]
name = "lot"
type = "text"
sources = ["lot-text", "lot-time"]
box = { x = 0, y = 23, w = 777, h = 110 }

[message]
objects = ["lot"]
ff_margin = 60
`
