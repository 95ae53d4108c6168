package codeblock

// highlightJSAliases lists the language names and aliases highlight.js 11
// registers. A class outside this set would leave the block unhighlighted.
var highlightJSAliases = newAliasSet(
	"1c", "4d", "sap-abap", "abap", "abnf", "accesslog", "ada", "apex", "arduino", "ino",
	"armasm", "arm", "avrasm", "actionscript", "as", "alan", "i", "ln", "angelscript", "asc",
	"apache", "apacheconf", "applescript", "osascript", "arcade", "asciidoc", "adoc", "aspectj", "autohotkey", "autoit",
	"awk", "mawk", "nawk", "gawk", "bash", "sh", "zsh", "basic", "bbcode", "blade",
	"bnf", "brainfuck", "bf", "csharp", "cs", "c", "h", "cpp", "hpp", "cc",
	"hh", "c++", "h++", "cxx", "hxx", "cmake", "cmake.in", "cobol", "standard-cobol", "coq",
	"csp", "css", "capnproto", "capnp", "chaos", "kaos", "chapel", "chpl", "cisco", "clojure",
	"clj", "coffeescript", "coffee", "cson", "iced", "crystal", "cr", "curl", "cypher", "d",
	"dafny", "dart", "dpr", "dfm", "pas", "pascal", "diff", "patch", "django", "jinja",
	"dns", "zone", "bind", "dockerfile", "docker", "dos", "bat", "cmd", "dsconfig", "dts",
	"dust", "dst", "dylan", "ebnf", "elixir", "elm", "erlang", "erl", "excel", "xls",
	"xlsx", "extempore", "xtlang", "xtm", "fsharp", "fs", "fix", "fortran", "f90", "f95",
	"func", "gcode", "nc", "gams", "gms", "gauss", "gss", "godot", "gdscript", "gherkin",
	"hbs", "glimmer", "html.hbs", "html.handlebars", "htmlbars", "go", "golang", "golo", "gololang", "gradle",
	"graphql", "groovy", "gsql", "xml", "html", "xhtml", "rss", "atom", "xjb", "xsd",
	"xsl", "plist", "svg", "haskell", "hs", "haxe", "hx", "hlsl", "hy", "hylang",
	"ini", "toml", "inform7", "i7", "irpf90", "json", "java", "jsp", "javascript", "js",
	"jsx", "jolie", "iol", "ol", "julia", "julia-repl", "kotlin", "kt", "tex", "leaf",
	"lean", "lasso", "ls", "lassoscript", "less", "ldif", "lisp", "livecodeserver", "livescript", "lookml",
	"lua", "macaulay2", "makefile", "mk", "mak", "make", "markdown", "md", "mkdown", "mkd",
	"mathematica", "mma", "wl", "matlab", "maxima", "mel", "mercury", "mirc", "mrc", "mizar",
	"mkb", "mlir", "mojolicious", "monkey", "moonscript", "moon", "n1ql", "nsis", "never", "nginx",
	"nginxconf", "nim", "nimrod", "nix", "oak", "ocl", "ocaml", "ml", "objectivec", "mm",
	"objc", "obj-c", "obj-c++", "objective-c++", "ruleslanguage", "oxygene", "pf", "pf.conf", "php", "papyrus",
	"psc", "parser3", "perl", "pl", "pm", "pine", "pinescript", "plaintext", "txt", "text",
	"pony", "pgsql", "postgres", "postgresql", "powershell", "ps", "ps1", "processing", "prolog", "properties",
	"protobuf", "puppet", "pp", "python", "py", "gyp", "profile", "python-repl", "pycon", "qsharp",
	"k", "kdb", "qml", "r", "cshtml", "razor", "razor-cshtml", "reasonml", "re", "redbol",
	"rebol", "red", "red-system", "rib", "rsl", "risc", "riscript", "graph", "instances", "robot",
	"rf", "rpm-specfile", "rpm", "spec", "rpm-spec", "specfile", "scss", "sql", "p21", "step",
	"stp", "scala", "scheme", "scilab", "sci", "shexc", "shell", "console", "smali", "smalltalk",
	"st", "sml", "solidity", "sol", "spl", "stan", "stanfuncs", "stata", "iecst", "scl",
	"stl", "structured-text", "supercollider", "sc", "svelte", "swift", "tcl", "tk", "terraform", "tf",
	"hcl", "tap", "thrift", "toit", "tp", "tsql", "twig", "craftcms", "typescript", "ts",
	"unicorn-rails-log", "vbnet", "vb", "vba", "vbscript", "vbs", "vhdl", "vala", "verilog", "v",
	"vim", "xsharp", "xs", "prg", "axapta", "x++", "x86asm", "xl", "tao", "xquery",
	"xpath", "xq", "yml", "yaml", "zenscript", "zs", "zephir", "zep", "ruby", "rb",
	"gemspec", "podspec", "thor", "irb", "routeros", "mikrotik", "rust", "rs",
)

type aliasSet map[string]struct{}

func newAliasSet(names ...string) aliasSet {
	s := make(aliasSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s aliasSet) has(name string) bool {
	_, ok := s[name]
	return ok
}
