package label

import "fmt"

// GS1 application identifiers, in payload order.
const (
	AIGTIN   = "01"
	AISerial = "21"
	AIExpiry = "17"
	AIBatch  = "10"
)

const (
	noExpiry       = "000000"
	dayPlaceholder = "00"
)

// ProductFields are the user inputs of a product label. MFG and EXP are MMYYYY.
type ProductFields struct {
	GTIN    string
	MFG     string
	EXP     string
	Batch   string
	SN      string
	TMDAReg string
}

// ExpiryToYYMMDD turns MMYYYY into the day-granular YYMMDD the barcode carries,
// with a "00" day. Input shorter than six characters yields "000000".
func ExpiryToYYMMDD(mmyyyy string) string {
	if len(mmyyyy) < 6 {
		return noExpiry
	}
	mm := mmyyyy[:2]
	yy := mmyyyy[len(mmyyyy)-2:]
	return yy + mm + dayPlaceholder
}

// ExpiryToDisplay renders MMYYYY as "MM YYYY". Short input yields "".
func ExpiryToDisplay(mmyyyy string) string {
	if len(mmyyyy) < 6 {
		return ""
	}
	return mmyyyy[:2] + " " + mmyyyy[2:6]
}

// GS1 assembles 01{gtin}21{serial}17{yymmdd}10{batch} with no separators.
func GS1(gtin, serial, expiry, batch string) string {
	return AIGTIN + gtin + AISerial + serial + AIExpiry + ExpiryToYYMMDD(expiry) + AIBatch + batch
}

// GS1Parts returns the payload halves around the serial, so a serial source
// and a live date source can be spliced between them at the object level:
// prefix + serial + suffix + date.
func GS1Parts(gtin, expiry, batch string) (prefix, suffix string) {
	prefix = AIGTIN + gtin + AISerial
	suffix = AIExpiry + ExpiryToYYMMDD(expiry) + AIBatch + batch
	return prefix, suffix
}

// Field is one human-readable line of a product label.
type Field struct {
	Name string
	Text string
}

// Field names used as source and object names on the device.
const (
	FieldGTIN    = "GTIN"
	FieldMFG     = "MFG"
	FieldEXP     = "EXP"
	FieldBatch   = "BATCH"
	FieldSN      = "SN"
	FieldTMDAReg = "TMDA"
)

// FieldTexts returns the on-label text lines in display order. The TMDA
// registration line is present only when a value was given.
func FieldTexts(p ProductFields) []Field {
	fields := []Field{
		{Name: FieldGTIN, Text: fmt.Sprintf("GTIN: %s", p.GTIN)},
		{Name: FieldMFG, Text: fmt.Sprintf("MFG: %s", ExpiryToDisplay(p.MFG))},
		{Name: FieldEXP, Text: fmt.Sprintf("EXP: %s", ExpiryToDisplay(p.EXP))},
		{Name: FieldBatch, Text: fmt.Sprintf("BATCH: %s", p.Batch)},
		{Name: FieldSN, Text: fmt.Sprintf("SN: %s", p.SN)},
	}
	if p.TMDAReg != "" {
		fields = append(fields, Field{Name: FieldTMDAReg, Text: fmt.Sprintf("TMDA REG. NO.: %s", p.TMDAReg)})
	}
	return fields
}
