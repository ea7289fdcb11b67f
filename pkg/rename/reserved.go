package rename

// pythonKeywords holds every reserved word of the language, including the
// soft keywords that are unsafe to shadow.
var pythonKeywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true,
	"class": true, "continue": true, "def": true, "del": true, "elif": true,
	"else": true, "except": true, "finally": true, "for": true, "from": true,
	"global": true, "if": true, "import": true, "in": true, "is": true,
	"lambda": true, "match": true, "nonlocal": true, "not": true, "or": true,
	"pass": true, "raise": true, "return": true, "try": true, "while": true,
	"with": true, "yield": true, "case": true, "type": true,
}

// pythonBuiltins holds the standard builtin namespace. A fresh name must
// never shadow one of these, and a binding that already carries one of
// these names is left alone.
var pythonBuiltins = map[string]bool{
	"abs": true, "aiter": true, "all": true, "anext": true, "any": true,
	"ascii": true, "bin": true, "bool": true, "breakpoint": true,
	"bytearray": true, "bytes": true, "callable": true, "chr": true,
	"classmethod": true, "compile": true, "complex": true, "delattr": true,
	"dict": true, "dir": true, "divmod": true, "enumerate": true,
	"eval": true, "exec": true, "exit": true, "filter": true, "float": true,
	"format": true, "frozenset": true, "getattr": true, "globals": true,
	"hasattr": true, "hash": true, "help": true, "hex": true, "id": true,
	"input": true, "int": true, "isinstance": true, "issubclass": true,
	"iter": true, "len": true, "list": true, "locals": true, "map": true,
	"max": true, "memoryview": true, "min": true, "next": true,
	"object": true, "oct": true, "open": true, "ord": true, "pow": true,
	"print": true, "property": true, "quit": true, "range": true,
	"repr": true, "reversed": true, "round": true, "set": true,
	"setattr": true, "slice": true, "sorted": true, "staticmethod": true,
	"str": true, "sum": true, "super": true, "tuple": true, "vars": true,
	"zip": true, "__import__": true, "__name__": true, "__file__": true,
	"__doc__": true, "__builtins__": true, "self": true, "cls": true,
	"Exception": true, "BaseException": true, "ValueError": true,
	"TypeError": true, "KeyError": true, "IndexError": true,
	"AttributeError": true, "RuntimeError": true, "StopIteration": true,
	"OSError": true, "IOError": true, "NotImplementedError": true,
	"ZeroDivisionError": true, "OverflowError": true, "ArithmeticError": true,
	"ImportError": true, "ModuleNotFoundError": true, "NameError": true,
	"UnicodeDecodeError": true, "UnicodeEncodeError": true,
	"KeyboardInterrupt": true, "SystemExit": true, "GeneratorExit": true,
	"Warning": true, "DeprecationWarning": true, "NotImplemented": true,
	"Ellipsis": true,
}

// isReserved reports whether a name may never be introduced or replaced.
func isReserved(name string) bool {
	return pythonKeywords[name] || pythonBuiltins[name]
}
