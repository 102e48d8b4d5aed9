package audit

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"dirsync/core/bean"
	"dirsync/core/directory"
	"dirsync/core/reconcile"

	"github.com/bwmarrin/go-objectsid"
)

const sidAttribute = "objectSid"

// RenderLDIF renders ops as LDIF change records.
func RenderLDIF(ops []*reconcile.Operation) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("version: 1\n")

	for _, op := range ops {
		buf.WriteString("\n")
		writeLine(&buf, "dn", bean.Text(op.DN))

		switch op.Kind {
		case reconcile.AddEntry:
			buf.WriteString("changetype: add\n")
			for _, change := range op.Changes {
				writeAttribute(&buf, change.Attribute)
			}

		case reconcile.DeleteEntry:
			buf.WriteString("changetype: delete\n")

		case reconcile.ModifyEntry:
			buf.WriteString("changetype: modify\n")
			for _, change := range op.Changes {
				name := change.Attribute.Name
				switch change.Type {
				case reconcile.ChangeAdd:
					fmt.Fprintf(&buf, "add: %s\n", name)
					writeAttribute(&buf, change.Attribute)
				case reconcile.ChangeReplace:
					fmt.Fprintf(&buf, "replace: %s\n", name)
					writeAttribute(&buf, change.Attribute)
				case reconcile.ChangeRemove:
					fmt.Fprintf(&buf, "delete: %s\n", name)
				default:
					return nil, fmt.Errorf("unknown change type %q on %s", change.Type, op.DN)
				}
				buf.WriteString("-\n")
			}

		case reconcile.RenameEntry:
			req, err := directory.ModifyDNRequest(op)
			if err != nil {
				return nil, err
			}
			buf.WriteString("changetype: modrdn\n")
			writeLine(&buf, "newrdn", bean.Text(req.NewRDN))
			buf.WriteString("deleteoldrdn: 1\n")
			if req.NewSuperior != "" {
				writeLine(&buf, "newsuperior", bean.Text(req.NewSuperior))
			}

		default:
			return nil, fmt.Errorf("unknown operation kind %q on %s", op.Kind, op.DN)
		}
	}
	return buf.Bytes(), nil
}

func writeAttribute(buf *bytes.Buffer, attr *bean.Attribute) {
	for _, v := range attr.Values {
		if v.IsBinary() && bean.SameName(attr.Name, sidAttribute) {
			if sid, ok := decodeSID(v.Bytes()); ok {
				fmt.Fprintf(buf, "# %s: %s\n", sidAttribute, sid)
			}
		}
		writeLine(buf, attr.Name, v)
	}
}

func writeLine(buf *bytes.Buffer, name string, v bean.Value) {
	if v.IsBinary() || !isSafeString(v.String()) {
		fmt.Fprintf(buf, "%s:: %s\n", name, base64.StdEncoding.EncodeToString(v.Bytes()))
		return
	}
	fmt.Fprintf(buf, "%s: %s\n", name, v.String())
}

// isSafeString reports whether s can be written as an RFC 2849 SAFE-STRING.
// Trailing spaces are encoded as well.
func isSafeString(s string) bool {
	if s == "" {
		return true
	}
	switch s[0] {
	case ' ', ':', '<':
		return false
	}
	if strings.HasSuffix(s, " ") {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == 0 || c == '\n' || c == '\r' || c > 127 {
			return false
		}
	}
	return true
}

// decodeSID returns the string form of a binary SID, or false when b is not
// a well formed SID.
func decodeSID(b []byte) (string, bool) {
	if len(b) < 8 || len(b) != 8+4*int(b[1]) {
		return "", false
	}
	return objectsid.Decode(b).String(), true
}
