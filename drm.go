package epub

import (
	"encoding/xml"
	"strings"

	"go.uber.org/zap"
)

// encryptionFilePath is the standard path for the encryption descriptor.
const encryptionFilePath = "META-INF/encryption.xml"

// sinfFilePath is the path that indicates Apple FairPlay DRM.
const sinfFilePath = "META-INF/sinf.xml"

// Font obfuscation algorithm URIs. These do NOT constitute DRM.
var fontObfuscationAlgorithms = map[string]bool{
	"http://www.idpf.org/2008/embedding": true, // IDPF font obfuscation
	"http://ns.adobe.com/pdf/enc#RC":     true, // Adobe font obfuscation
}

// Known DRM namespace prefixes found in KeyInfo child elements or algorithm URIs.
var drmSignatures = []string{
	"http://ns.adobe.com/adept",      // Adobe ADEPT
	"http://readium.org/2014/01/lcp", // Readium LCP
}

type xmlEncryption struct {
	XMLName       xml.Name           `xml:"encryption"`
	EncryptedData []xmlEncryptedData `xml:"EncryptedData"`
}

type xmlEncryptedData struct {
	EncryptionMethod xmlEncryptionMethod `xml:"EncryptionMethod"`
	KeyInfo          xmlKeyInfo          `xml:"KeyInfo"`
}

type xmlEncryptionMethod struct {
	Algorithm string `xml:"Algorithm,attr"`
}

type xmlKeyInfo struct {
	InnerXML string `xml:",innerxml"`
}

// checkDRM inspects the archive for DRM markers and logs a warning when
// any are found. Structural parsing still works on a protected book, so
// detection never fails the open; content reads will simply return
// ciphertext.
func (b *Book) checkDRM() {
	if b.archive.HasEntry(sinfFilePath) {
		b.logger.Warn("drm marker found, content may be encrypted",
			zap.String("marker", sinfFilePath))
		return
	}

	data, err := b.archive.ReadEntry(encryptionFilePath)
	if err != nil {
		return
	}

	var enc xmlEncryption
	if err := xml.Unmarshal(stripBOM(data), &enc); err != nil {
		b.logger.Warn("encryption descriptor unparseable, content may be encrypted",
			zap.String("marker", encryptionFilePath), zap.Error(err))
		return
	}

	for _, ed := range enc.EncryptedData {
		algo := ed.EncryptionMethod.Algorithm
		if fontObfuscationAlgorithms[algo] {
			continue
		}
		marker := encryptionFilePath
		if isDRMSignature(algo) || isDRMSignature(ed.KeyInfo.InnerXML) {
			marker = algo
		}
		b.logger.Warn("drm marker found, content may be encrypted",
			zap.String("marker", marker))
		return
	}
}

// isDRMSignature checks whether s contains any known DRM namespace or identifier.
func isDRMSignature(s string) bool {
	for _, sig := range drmSignatures {
		if strings.Contains(s, sig) {
			return true
		}
	}
	return false
}
