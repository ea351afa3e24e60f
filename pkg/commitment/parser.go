package commitment

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mahdiidarabi/ecdsa-commitment/internal/digest"
)

// ClaimParser defines the interface for reading claims from various sources.
type ClaimParser interface {
	// ParseClaims parses claims from a source and returns them.
	ParseClaims(source string) ([]*Claim, error)
}

// JSONParser parses claims from JSON files.
type JSONParser struct {
	PublicKeyField  string // Field name for public key hex (default: "public_key")
	SignatureField  string // Field name for signature hex (default: "signature")
	MessageField    string // Field name for text message (default: "message")
	MessageHexField string // Field name for hex message (default: "message_hex")
	SaltField       string // Field name for salt hex (default: "salt")
	SaltedField     string // Field name for the salted flag (default: "salted")
	DigestField     string // Field name for digest name (default: "digest")
}

// ParseClaims parses claims from a JSON file.
//
// Expected format:
// [
//
//	{"public_key": "04...", "signature": "...", "message": "..."},
//	{"public_key": "02...", "signature": "...", "message_hex": "...", "salt": "...", "salted": true, "digest": "blake3"}
//
// ]
func (p *JSONParser) ParseClaims(jsonFile string) ([]*Claim, error) {
	file, err := os.Open(jsonFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer file.Close()

	return p.Decode(file)
}

// Decode parses claims from a JSON stream.
func (p *JSONParser) Decode(r io.Reader) ([]*Claim, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var items []map[string]interface{}
	if err := decoder.Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	fields := p.fields()
	claims := make([]*Claim, 0, len(items))

	for i, item := range items {
		values, err := stringValues(item)
		if err != nil {
			return nil, fmt.Errorf("claim %d: %w", i, err)
		}

		claim, err := fields.claim(func(name string) (string, bool) {
			v, ok := values[name]
			return v, ok
		})
		if err != nil {
			return nil, fmt.Errorf("claim %d: %w", i, err)
		}
		claims = append(claims, claim)
	}

	return claims, nil
}

// stringValues flattens one JSON record to text. Numbers and booleans keep
// their literal form; null fields are treated as absent.
func stringValues(item map[string]interface{}) (map[string]string, error) {
	values := make(map[string]string, len(item))
	for name, v := range item {
		switch val := v.(type) {
		case nil:
		case string:
			values[name] = val
		case json.Number:
			values[name] = val.String()
		case bool:
			values[name] = strconv.FormatBool(val)
		default:
			return nil, malformed(name, fmt.Sprintf("unsupported JSON type %T", v), nil)
		}
	}
	return values, nil
}

func (p *JSONParser) fields() claimFields {
	return claimFields{
		publicKey:  orDefault(p.PublicKeyField, "public_key"),
		signature:  orDefault(p.SignatureField, "signature"),
		message:    orDefault(p.MessageField, "message"),
		messageHex: orDefault(p.MessageHexField, "message_hex"),
		salt:       orDefault(p.SaltField, "salt"),
		salted:     orDefault(p.SaltedField, "salted"),
		digest:     orDefault(p.DigestField, "digest"),
	}
}

// CSVParser parses claims from CSV files with a header row.
type CSVParser struct {
	PublicKeyCol  string // Column name for public key hex (default: "public_key")
	SignatureCol  string // Column name for signature hex (default: "signature")
	MessageCol    string // Column name for text message (default: "message")
	MessageHexCol string // Column name for hex message (default: "message_hex")
	SaltCol       string // Column name for salt hex (default: "salt")
	SaltedCol     string // Column name for the salted flag (default: "salted")
	DigestCol     string // Column name for digest name (default: "digest")
}

// ParseClaims parses claims from a CSV file.
func (p *CSVParser) ParseClaims(csvFile string) ([]*Claim, error) {
	file, err := os.Open(csvFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return p.Decode(file)
}

// Decode parses claims from a CSV stream.
func (p *CSVParser) Decode(r io.Reader) ([]*Claim, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, col := range header {
		columns[col] = i
	}

	fields := p.fields()
	if _, ok := columns[fields.publicKey]; !ok {
		return nil, fmt.Errorf("missing required column: %s", fields.publicKey)
	}
	if _, ok := columns[fields.signature]; !ok {
		return nil, fmt.Errorf("missing required column: %s", fields.signature)
	}

	claims := make([]*Claim, 0)

	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		claim, err := fields.claim(func(name string) (string, bool) {
			idx, ok := columns[name]
			if !ok || idx >= len(record) {
				return "", false
			}
			return record[idx], true
		})
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		claims = append(claims, claim)
	}

	return claims, nil
}

func (p *CSVParser) fields() claimFields {
	return claimFields{
		publicKey:  orDefault(p.PublicKeyCol, "public_key"),
		signature:  orDefault(p.SignatureCol, "signature"),
		message:    orDefault(p.MessageCol, "message"),
		messageHex: orDefault(p.MessageHexCol, "message_hex"),
		salt:       orDefault(p.SaltCol, "salt"),
		salted:     orDefault(p.SaltedCol, "salted"),
		digest:     orDefault(p.DigestCol, "digest"),
	}
}

type claimFields struct {
	publicKey, signature, message, messageHex, salt, salted, digest string
}

// claim builds a Claim from a field lookup shared by the JSON and CSV parsers.
// Byte lengths are not checked here; Verify reports them as malformed input.
func (f claimFields) claim(get func(name string) (string, bool)) (*Claim, error) {
	claim := &Claim{}

	// Get public key
	pubHex, ok := get(f.publicKey)
	if !ok {
		return nil, fmt.Errorf("missing %s field", f.publicKey)
	}
	pub, err := hexDecode(pubHex)
	if err != nil {
		return nil, malformed("public_key", "invalid hex", err)
	}
	claim.PublicKey = pub

	// Get signature
	sigHex, ok := get(f.signature)
	if !ok {
		return nil, fmt.Errorf("missing %s field", f.signature)
	}
	sig, err := hexDecode(sigHex)
	if err != nil {
		return nil, malformed("signature", "invalid hex", err)
	}
	claim.Signature = sig

	// Get message, hex form wins over text
	if msgHex, ok := get(f.messageHex); ok && msgHex != "" {
		msg, err := hexDecode(msgHex)
		if err != nil {
			return nil, malformed("message", "invalid hex", err)
		}
		claim.Message = msg
	} else if msg, ok := get(f.message); ok {
		claim.Message = []byte(msg)
	} else {
		return nil, fmt.Errorf("missing %s or %s field", f.message, f.messageHex)
	}

	// Get salt
	if saltHex, ok := get(f.salt); ok && saltHex != "" {
		salt, err := hexDecode(saltHex)
		if err != nil {
			return nil, malformed("salt", "invalid hex", err)
		}
		claim.Salt = salt
	}

	// Salt mode: explicit flag, else implied by the salt
	claim.Salted = len(claim.Salt) > 0
	if v, ok := get(f.salted); ok && v != "" {
		salted, err := strconv.ParseBool(v)
		if err != nil {
			return nil, malformed("salted", "not a boolean", err)
		}
		claim.Salted = salted
	}

	// Get digest
	if name, ok := get(f.digest); ok && name != "" {
		alg, err := digest.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnknownDigest, err)
		}
		claim.Digest = alg
	}

	return claim, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
