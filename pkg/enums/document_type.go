package enums

import (
	"fmt"
	"strings"
)

// DocumentType identifies one of the generated order documents.
type DocumentType string

const (
	DocumentTypeInvoice       DocumentType = "INVOICE"
	DocumentTypeCustomerPO    DocumentType = "CUSTOMER_PO"
	DocumentTypeVendorPO      DocumentType = "VENDOR_PO"
	DocumentTypeVendorInvoice DocumentType = "VENDOR_INVOICE"
)

var validDocumentTypes = []DocumentType{
	DocumentTypeInvoice,
	DocumentTypeCustomerPO,
	DocumentTypeVendorPO,
	DocumentTypeVendorInvoice,
}

// String implements fmt.Stringer.
func (d DocumentType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DocumentType.
func (d DocumentType) IsValid() bool {
	for _, candidate := range validDocumentTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// VendorScoped reports whether the document is issued per vendor.
func (d DocumentType) VendorScoped() bool {
	return d == DocumentTypeVendorPO || d == DocumentTypeVendorInvoice
}

// IsInvoice reports whether the document bills shipped goods.
func (d DocumentType) IsInvoice() bool {
	return d == DocumentTypeInvoice || d == DocumentTypeVendorInvoice
}

// ParseDocumentType accepts INVOICE, customer_po, vendor-po and similar forms.
func ParseDocumentType(value string) (DocumentType, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	candidate := DocumentType(normalized)
	if candidate.IsValid() {
		return candidate, nil
	}
	return "", fmt.Errorf("invalid document type %q", value)
}
