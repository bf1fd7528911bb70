package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

// CodingScheme is one of the four fixed CIM identifier scheme codes
// spec.md §4.7 enumerates.
type CodingScheme string

const (
	SchemeGLN      CodingScheme = "A10" // GLN
	SchemeGridArea CodingScheme = "NDK" // grid areas
	SchemeCPR      CodingScheme = "ARR" // CPR
	SchemeCVR      CodingScheme = "VA"  // CVR
)

// cimTimeLayout is the UTC yyyy-MM-ddTHH:mm:ssZ format spec.md §4.7
// requires for every envelope timestamp.
const cimTimeLayout = "2006-01-02T15:04:05Z"

// CodedValue pairs a raw identifier with its coding scheme, the shape
// spec.md §4.7 uses for sender/receiver market participants and any
// other scheme-qualified field.
type CodedValue struct {
	CodingScheme CodingScheme `json:"codingScheme"`
	Value        string       `json:"value"`
}

type valueWrapper struct {
	Value string `json:"value"`
}

type processWrapper struct {
	ProcessType valueWrapper `json:"processType"`
}

type businessSectorWrapper struct {
	Type string `json:"type"`
}

// marketDocument is the header + transaction body spec.md §4.7
// describes: "header fields (mRID, type.value, process.processType.value,
// businessSector.type, sender/receiver market participant objects ...)
// and an array of MktActivityRecord transactions."
type marketDocument struct {
	MRID                      string                `json:"mRID"`
	Type                      valueWrapper          `json:"type"`
	Process                   processWrapper        `json:"process"`
	BusinessSector            businessSectorWrapper `json:"businessSector"`
	SenderMarketParticipant   CodedValue            `json:"sender_MarketParticipant.mRID"`
	ReceiverMarketParticipant CodedValue            `json:"receiver_MarketParticipant.mRID"`
	CreatedDateTime           string                `json:"createdDateTime"`
	MktActivityRecord         []map[string]any      `json:"MktActivityRecord"`
}

// Envelope is a built, ready-to-marshal CIM envelope: a JSON document
// with a single top-level document-name key (spec.md §4.7).
type Envelope struct {
	DocumentName string
	doc          marketDocument
}

// JSON serializes the envelope to its single-top-level-key wire form.
func (e Envelope) JSON() ([]byte, error) {
	return json.Marshal(map[string]marketDocument{e.DocumentName: e.doc})
}

// MRID returns the envelope's document identifier.
func (e Envelope) MRID() string { return e.doc.MRID }

// Builder is the small DSL spec.md §4.7 names: ".Create(docType,
// processCode, senderGln).AddSeries(fields).Build()".
type Builder struct {
	documentName string
	doc          marketDocument
}

// Create starts a new envelope of the given document name (e.g.
// "RequestChangeOfSupplier_MarketDocument") and business process type
// code (e.g. "E03"), stamped with createdDateTime = now.
func Create(documentName, processTypeCode string, senderGln primitives.GlnNumber, mrid string, now time.Time) *Builder {
	return &Builder{
		documentName: documentName,
		doc: marketDocument{
			MRID:            mrid,
			Type:            valueWrapper{Value: documentName},
			Process:         processWrapper{ProcessType: valueWrapper{Value: processTypeCode}},
			CreatedDateTime: now.UTC().Format(cimTimeLayout),
			SenderMarketParticipant: CodedValue{
				CodingScheme: SchemeGLN,
				Value:        senderGln.String(),
			},
		},
	}
}

// WithReceiver sets the receiving market participant, GLN-coded.
func (b *Builder) WithReceiver(receiverGln primitives.GlnNumber) *Builder {
	b.doc.ReceiverMarketParticipant = CodedValue{CodingScheme: SchemeGLN, Value: receiverGln.String()}
	return b
}

// WithBusinessSector sets businessSector.type (e.g. "23" electricity).
func (b *Builder) WithBusinessSector(sectorType string) *Builder {
	b.doc.BusinessSector = businessSectorWrapper{Type: sectorType}
	return b
}

// AddSeries appends one MktActivityRecord transaction built from the
// given fields, unmodified beyond JSON encoding.
func (b *Builder) AddSeries(fields map[string]any) *Builder {
	b.doc.MktActivityRecord = append(b.doc.MktActivityRecord, fields)
	return b
}

// Build finalizes the envelope.
func (b *Builder) Build() (Envelope, error) {
	if b.doc.SenderMarketParticipant.Value == "" {
		return Envelope{}, fmt.Errorf("messaging: envelope %s missing sender market participant", b.documentName)
	}
	return Envelope{DocumentName: b.documentName, doc: b.doc}, nil
}

// ParsedEnvelope is the inverse of Builder's output: the fields a
// recipient handler needs out of an inbound CIM JSON document.
type ParsedEnvelope struct {
	DocumentName    string
	MRID            string
	ProcessTypeCode string
	SenderGln       string
	ReceiverGln     string
	CreatedDateTime time.Time
	Transactions    []map[string]any
}

// Parse performs the inverse of Build: unknown optional fields are
// ignored (spec.md §4.7), since only the single known document-name key
// is looked up and decoded into marketDocument.
func Parse(payload []byte) (ParsedEnvelope, error) {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(payload, &wrapper); err != nil {
		return ParsedEnvelope{}, err
	}
	if len(wrapper) != 1 {
		return ParsedEnvelope{}, fmt.Errorf("messaging: envelope must have exactly one top-level document key, got %d", len(wrapper))
	}

	var documentName string
	var raw json.RawMessage
	for k, v := range wrapper {
		documentName, raw = k, v
	}

	var doc marketDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ParsedEnvelope{}, err
	}

	createdAt, err := time.Parse(cimTimeLayout, doc.CreatedDateTime)
	if err != nil {
		return ParsedEnvelope{}, fmt.Errorf("messaging: invalid createdDateTime %q: %w", doc.CreatedDateTime, err)
	}

	return ParsedEnvelope{
		DocumentName:    documentName,
		MRID:            doc.MRID,
		ProcessTypeCode: doc.Process.ProcessType.Value,
		SenderGln:       doc.SenderMarketParticipant.Value,
		ReceiverGln:     doc.ReceiverMarketParticipant.Value,
		CreatedDateTime: createdAt,
		Transactions:    doc.MktActivityRecord,
	}, nil
}
