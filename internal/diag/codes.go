package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Конфигурация (аргументы компилятора)
	CfgUnknownArgument  Code = 1001
	CfgMissingArgValue  Code = 1002
	CfgBadLanguage      Code = 1003
	CfgBadStandard      Code = 1004
	CfgBadErrorLimit    Code = 1005
	CfgProjectConfig    Code = 1006
	CfgNoMainFile       Code = 1007
	CfgDuplicateMainArg Code = 1008

	// Лексические
	LexUnknownChar              Code = 2001
	LexUnterminatedString       Code = 2002
	LexUnterminatedChar         Code = 2003
	LexUnterminatedBlockComment Code = 2004
	LexBadNumber                Code = 2005
	LexUnterminatedHeaderName   Code = 2006

	// Препроцессор
	PPFileNotFound            Code = 3001
	PPIncludeTooDeep          Code = 3002
	PPMacroRedefined          Code = 3003
	PPUnterminatedConditional Code = 3004
	PPElseWithoutIf           Code = 3005
	PPEndifWithoutIf          Code = 3006
	PPInvalidDirective        Code = 3007
	PPUserError               Code = 3008
	PPUserWarning             Code = 3009
	PPMacroArgCount           Code = 3010
	PPExpectedMacroName       Code = 3011
	PPExtraTokens             Code = 3012
	PPExpectedFilename        Code = 3013
	PPInIncludedFile          Code = 3014
	PPBadExpression           Code = 3015
	PPUnterminatedMacroCall   Code = 3016
	PPInvalidPaste            Code = 3017

	// Синтаксис
	SynUnexpectedToken   Code = 4001
	SynExpectSemicolon   Code = 4002
	SynExpectIdentifier  Code = 4003
	SynExpectType        Code = 4004
	SynExpectExpression  Code = 4005
	SynUnclosedDelimiter Code = 4006
	SynExpectDeclarator  Code = 4007
	SynTooManyErrors     Code = 4008

	// Семантика
	SemaUndeclaredIdentifier Code = 5001
	SemaUnknownTypeName      Code = 5002
	SemaIncompleteType       Code = 5003
	SemaRedefinition         Code = 5004
	SemaNotAFunction         Code = 5005
	SemaArgCount             Code = 5006
	SemaNoMember             Code = 5007
	SemaPrevDeclNote         Code = 5008

	// Подключаемые проверки
	TidyFinding Code = 6001

	// Наблюдаемость
	ObsTimings Code = 9001
)

var codeDescription = map[Code]string{
	UnknownCode:                 "Unknown error",
	CfgUnknownArgument:          "Unknown compiler argument",
	CfgMissingArgValue:          "Missing value for argument",
	CfgBadLanguage:              "Unsupported language",
	CfgBadStandard:              "Unsupported language standard",
	CfgBadErrorLimit:            "Invalid error limit",
	CfgProjectConfig:            "Invalid project configuration",
	CfgNoMainFile:               "No main file in command",
	CfgDuplicateMainArg:         "Extra input file ignored",
	LexUnknownChar:              "Unknown character",
	LexUnterminatedString:       "Unterminated string",
	LexUnterminatedChar:         "Unterminated character literal",
	LexUnterminatedBlockComment: "Unterminated block comment",
	LexBadNumber:                "Bad number",
	LexUnterminatedHeaderName:   "Unterminated header name",
	PPFileNotFound:              "File not found",
	PPIncludeTooDeep:            "Include nested too deeply",
	PPMacroRedefined:            "Macro redefined",
	PPUnterminatedConditional:   "Unterminated conditional directive",
	PPElseWithoutIf:             "#else without #if",
	PPEndifWithoutIf:            "#endif without #if",
	PPInvalidDirective:          "Invalid preprocessing directive",
	PPUserError:                 "#error",
	PPUserWarning:               "#warning",
	PPMacroArgCount:             "Wrong number of macro arguments",
	PPExpectedMacroName:         "Expected macro name",
	PPExtraTokens:               "Extra tokens after directive",
	PPExpectedFilename:          "Expected file name",
	PPInIncludedFile:            "Error in included file",
	PPBadExpression:             "Invalid #if expression",
	PPUnterminatedMacroCall:     "Unterminated macro invocation",
	PPInvalidPaste:              "Invalid token paste",
	SynUnexpectedToken:          "Unexpected token",
	SynExpectSemicolon:          "Expected semicolon",
	SynExpectIdentifier:         "Expected identifier",
	SynExpectType:               "Expected type",
	SynExpectExpression:         "Expected expression",
	SynUnclosedDelimiter:        "Unclosed delimiter",
	SynExpectDeclarator:         "Expected declarator",
	SynTooManyErrors:            "Too many errors",
	SemaUndeclaredIdentifier:    "Use of undeclared identifier",
	SemaUnknownTypeName:         "Unknown type name",
	SemaIncompleteType:          "Incomplete type",
	SemaRedefinition:            "Redefinition",
	SemaNotAFunction:            "Called object is not a function",
	SemaArgCount:                "Wrong number of arguments",
	SemaNoMember:                "No such member",
	SemaPrevDeclNote:            "Previous declaration",
	TidyFinding:                 "Check finding",
	ObsTimings:                  "Timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("PP%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("TDY%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("OBS%04d", ic)
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
