package conversion

import (
	pkgerrors "github.com/lekhapadi/lekhapadi-backend/pkg/errors"
)

const (
	stageConvert = "convert"
	stageStamp   = "stamp"
)

func conversionError(err error, message string) error {
	return pkgerrors.Wrap(pkgerrors.CodeConversion, err, message)
}

func signatureEmbedError(err error, message string) error {
	return pkgerrors.Wrap(pkgerrors.CodeSignatureEmbed, err, message)
}
