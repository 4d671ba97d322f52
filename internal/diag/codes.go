package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Binding diagnostics (namespace construction).
	BindInfo                    Code = 3000
	BindError                   Code = 3001
	BindDuplicateDeclaration    Code = 3002
	BindMemberConflictsTypeVar  Code = 3003
	BindMemberNamedDeclaration  Code = 3004
	BindDuplicateTypeVariable   Code = 3005
	BindTypeVarNamedDeclaration Code = 3006

	// Handle index / incremental rebuild.
	IdxInfo          Code = 4000
	IdxSchemaInvalid Code = 4001

	// I/O and manifest loading.
	IOLoadFileError    Code = 5001
	ManifestBadKind    Code = 5002
	ManifestBadMember  Code = 5003
	ManifestBadSpan    Code = 5004
	ManifestNoFragment Code = 5005
)

var codeDescription = map[Code]string{
	UnknownCode:                 "Unknown error",
	BindInfo:                    "Binding information",
	BindError:                   "Binding error",
	BindDuplicateDeclaration:    "Duplicated declaration",
	BindMemberConflictsTypeVar:  "Member conflicts with type parameter",
	BindMemberNamedDeclaration:  "Member shares enclosing declaration name",
	BindDuplicateTypeVariable:   "Duplicated type variable",
	BindTypeVarNamedDeclaration: "Type variable has same name as enclosing declaration",
	IdxInfo:                     "Handle index information",
	IdxSchemaInvalid:            "Handle index schema mismatch",
	IOLoadFileError:             "I/O load file error",
	ManifestBadKind:             "Unknown fragment kind in manifest",
	ManifestBadMember:           "Malformed member entry in manifest",
	ManifestBadSpan:             "Malformed span in manifest",
	ManifestNoFragment:          "Manifest declares no fragments",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("BND%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IDX%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
