package domain

import (
	dErrors "tributo/pkg/domain-errors"
)

// DocumentType is the two-digit fiscal document type code from the v4.4
// wire specification. The code is embedded verbatim in the consecutivo and
// in the clave, so the string representation is the wire representation.
type DocumentType string

const (
	DocumentTypeInvoice              DocumentType = "01"
	DocumentTypeDebitNote            DocumentType = "02"
	DocumentTypeCreditNote           DocumentType = "03"
	DocumentTypeTicket               DocumentType = "04"
	DocumentTypeAcceptanceAck        DocumentType = "05"
	DocumentTypePartialAcceptanceAck DocumentType = "06"
	DocumentTypeRejectionAck         DocumentType = "07"
	DocumentTypePurchaseInvoice      DocumentType = "08"
	DocumentTypeExportInvoice        DocumentType = "09"
	DocumentTypePaymentReceipt       DocumentType = "11"
)

var documentTypeNames = map[DocumentType]string{
	DocumentTypeInvoice:              "electronic invoice",
	DocumentTypeDebitNote:            "debit note",
	DocumentTypeCreditNote:           "credit note",
	DocumentTypeTicket:               "electronic ticket",
	DocumentTypeAcceptanceAck:        "acceptance acknowledgment",
	DocumentTypePartialAcceptanceAck: "partial acceptance acknowledgment",
	DocumentTypeRejectionAck:         "rejection acknowledgment",
	DocumentTypePurchaseInvoice:      "purchase invoice",
	DocumentTypeExportInvoice:        "export invoice",
	DocumentTypePaymentReceipt:       "payment receipt",
}

// ParseDocumentType validates and returns a DocumentType.
// Returns an error for codes outside the v4.4 catalog.
func ParseDocumentType(s string) (DocumentType, error) {
	dt := DocumentType(s)
	if _, ok := documentTypeNames[dt]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown document type code: %q", s)
	}
	return dt, nil
}

// String returns the two-digit wire code.
func (d DocumentType) String() string {
	return string(d)
}

// Name returns the human-readable document type name.
func (d DocumentType) Name() string {
	if name, ok := documentTypeNames[d]; ok {
		return name
	}
	return "unknown"
}

// IsValid reports whether the code belongs to the v4.4 catalog.
func (d DocumentType) IsValid() bool {
	_, ok := documentTypeNames[d]
	return ok
}
