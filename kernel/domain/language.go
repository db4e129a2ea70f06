package domain

import (
	"runtime"

	"github.com/scusemua/notebook-kernel/common/jupyter/messaging"
)

const (
	ImplementationName    = "notebook-kernel"
	ImplementationVersion = "0.1.0"
	LanguageName          = "go"
	FileExtension         = ".go"
	Mimetype              = "text/x-go"
	Banner                = "Go kernel backed by the yaegi interpreter"
)

// LanguageVersion is the version of Go the interpreter emulates.
func LanguageVersion() string {
	return runtime.Version()
}

// KernelInfo returns the content of a kernel_info_reply.
func KernelInfo() *messaging.MessageKernelInfoReply {
	return &messaging.MessageKernelInfoReply{
		Status:                messaging.MessageStatusOK,
		ProtocolVersion:       messaging.ProtocolVersion,
		Implementation:        ImplementationName,
		ImplementationVersion: ImplementationVersion,
		Language:              LanguageName,
		LanguageVersion:       LanguageVersion(),
		LanguageInfo: messaging.LanguageInfo{
			Name:           LanguageName,
			Version:        LanguageVersion(),
			Mimetype:       Mimetype,
			FileExtension:  FileExtension,
			PygmentsLexer:  LanguageName,
			CodemirrorMode: LanguageName,
		},
		Banner: Banner,
		HelpLinks: []messaging.HelpLink{
			{Text: "Go", URL: "https://go.dev/doc/"},
			{Text: "yaegi", URL: "https://github.com/traefik/yaegi"},
		},
	}
}
