package main

import (
	"errors"
	"io/fs"

	"github.com/inkwell-labs/doctran/internal/pipelineerr"
)

// Exit codes let CI distinguish failure classes without parsing stderr.
const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitDocxParse     = 2
	ExitModelLoad     = 3
	ExitProtocol      = 4
	ExitStructure     = 5
	ExitQualityIssue  = 6
	ExitFileError     = 7
)

// DetermineExitCode classifies err into one of the codes above.
func DetermineExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if pipelineerr.Is(err, pipelineerr.DocxParse) {
		return ExitDocxParse
	}
	if pipelineerr.Is(err, pipelineerr.ModelLoad) {
		return ExitModelLoad
	}
	if pipelineerr.Is(err, pipelineerr.Protocol) {
		return ExitProtocol
	}
	if pipelineerr.Is(err, pipelineerr.Structure) {
		return ExitStructure
	}
	if pipelineerr.Is(err, pipelineerr.QualityIssue) {
		return ExitQualityIssue
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return ExitFileError
	}
	return ExitGeneralError
}
