package vmc

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"
)

// OIDLogotype is the id-pe-logotype extension OID (RFC 3709).
var OIDLogotype = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 1, 12}

// SVGMediaType is the media type a BIMI indicator must declare.
const SVGMediaType = "image/svg+xml"

// Logotype decoding errors.
var (
	// ErrNoLogotype indicates the certificate carries no logotype extension.
	// This is deliberately distinct from decode errors: an absent extension
	// means "no logo", a malformed one must never be mistaken for it.
	ErrNoLogotype = errors.New("vmc: no logotype extension in certificate")

	// ErrLogotypeSyntax indicates the logotype extension is malformed DER.
	ErrLogotypeSyntax = errors.New("vmc: malformed logotype extension")
)

// HashAlgAndValue is one hash over the referenced image data.
type HashAlgAndValue struct {
	// Algorithm identifies the hash algorithm.
	Algorithm asn1.ObjectIdentifier

	// Value is the hash value.
	Value []byte
}

// Logotype is one decoded subject-logo image from a logotype extension.
type Logotype struct {
	// MediaType is the declared MIME type, e.g. "image/svg+xml".
	MediaType string

	// Hashes are the declared hashes over the image data.
	Hashes []HashAlgAndValue

	// URIs are the locations the image can be fetched from.
	URIs []string
}

// The RFC 3709 schema, restricted to the subjectLogo/direct path a Verified
// Mark Certificate uses:
//
//	LogotypeExtn    ::= SEQUENCE { subjectLogo [2] EXPLICIT LogotypeInfo OPTIONAL }
//	LogotypeInfo    ::= CHOICE { direct [0] IMPLICIT LogotypeData }
//	LogotypeData    ::= SEQUENCE { image SEQUENCE OF LogotypeImage OPTIONAL }
//	LogotypeImage   ::= SEQUENCE { imageDetails LogotypeDetails }
//	LogotypeDetails ::= SEQUENCE {
//	    mediaType    IA5String,
//	    logotypeHash SEQUENCE OF HashAlgAndValue,
//	    logotypeURI  SEQUENCE OF IA5String }
//
// The schema is fixed, so it is expressed as tagged structs rather than any
// dynamic decoding.
type logotypeExtn struct {
	SubjectLogo asn1.RawValue `asn1:"explicit,tag:2,optional"`
}

type logotypeData struct {
	Image []logotypeImage `asn1:"optional"`
}

type logotypeImage struct {
	ImageDetails logotypeDetails
}

type logotypeDetails struct {
	MediaType    string `asn1:"ia5"`
	LogotypeHash []hashAlgAndValue
	LogotypeURI  []string `asn1:"ia5"`
}

type hashAlgAndValue struct {
	HashAlg   pkix.AlgorithmIdentifier
	HashValue []byte
}

// ParseLogotype decodes the DER value of a logotype extension into the
// subject-logo images it declares.
//
// Malformed or truncated DER yields an error, never a silent empty result: a
// forged extension must not be indistinguishable from an absent one. An
// extension without a subjectLogo decodes to an empty slice.
func ParseLogotype(der []byte) ([]Logotype, error) {
	var extn logotypeExtn
	rest, err := asn1.Unmarshal(der, &extn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogotypeSyntax, err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrLogotypeSyntax, len(rest))
	}

	if len(extn.SubjectLogo.FullBytes) == 0 {
		// subjectLogo is OPTIONAL; absent means no images.
		return nil, nil
	}

	// LogotypeInfo is a CHOICE; the only alternative a VMC uses is
	// direct [0] IMPLICIT LogotypeData.
	var data logotypeData
	rest, err = asn1.UnmarshalWithParams(extn.SubjectLogo.FullBytes, &data, "tag:0")
	if err != nil {
		return nil, fmt.Errorf("%w: subjectLogo: %v", ErrLogotypeSyntax, err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: subjectLogo: %d trailing bytes", ErrLogotypeSyntax, len(rest))
	}

	logos := make([]Logotype, 0, len(data.Image))
	for _, img := range data.Image {
		l := Logotype{
			MediaType: img.ImageDetails.MediaType,
			URIs:      img.ImageDetails.LogotypeURI,
		}
		for _, h := range img.ImageDetails.LogotypeHash {
			l.Hashes = append(l.Hashes, HashAlgAndValue{
				Algorithm: h.HashAlg.Algorithm,
				Value:     h.HashValue,
			})
		}
		logos = append(logos, l)
	}
	return logos, nil
}

// MarshalLogotype encodes images as a logotype extension value. The inverse
// of ParseLogotype; used by tooling that issues test certificates.
func MarshalLogotype(logos []Logotype) ([]byte, error) {
	data := logotypeData{}
	for _, l := range logos {
		details := logotypeDetails{
			MediaType:    l.MediaType,
			LogotypeHash: []hashAlgAndValue{},
			LogotypeURI:  l.URIs,
		}
		for _, h := range l.Hashes {
			details.LogotypeHash = append(details.LogotypeHash, hashAlgAndValue{
				HashAlg:   pkix.AlgorithmIdentifier{Algorithm: h.Algorithm},
				HashValue: h.Value,
			})
		}
		data.Image = append(data.Image, logotypeImage{ImageDetails: details})
	}

	inner, err := asn1.MarshalWithParams(data, "tag:0")
	if err != nil {
		return nil, err
	}
	// Marshal ignores tag parameters on RawValue fields, so the EXPLICIT [2]
	// wrapper and the outer SEQUENCE are built by hand.
	wrapped, err := asn1.Marshal(asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 2, IsCompound: true, Bytes: inner})
	if err != nil {
		return nil, err
	}
	return asn1.Marshal(asn1.RawValue{Class: asn1.ClassUniversal, Tag: asn1.TagSequence, IsCompound: true, Bytes: wrapped})
}

// LogotypeFromCertificate locates the logotype extension in cert and decodes
// it. Returns ErrNoLogotype when the extension is absent.
func LogotypeFromCertificate(cert *x509.Certificate) ([]Logotype, error) {
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(OIDLogotype) {
			return ParseLogotype(ext.Value)
		}
	}
	return nil, ErrNoLogotype
}

// SelectSVG returns the first image declaring the SVG media type, which is
// the only type a BIMI indicator may use. The second return is false when no
// image qualifies.
func SelectSVG(logos []Logotype) (Logotype, bool) {
	for _, l := range logos {
		if l.MediaType == SVGMediaType {
			return l, true
		}
	}
	return Logotype{}, false
}
