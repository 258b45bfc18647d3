package dsl

// NotCommented is a line prefix that only admits text before the first
// unescaped percent sign.
const NotCommented = `
                # NOT COMMENTED
    ^           # Between start of line and following text,
    (?:         # only allow
        \\%     # escaped %
        |       # or
        [^%\n]  # any character beside %.
    )*
`

// NotEscaped rejects a position preceded by a lone backslash while accepting
// one preceded by the line break command.
const NotEscaped = `
                     # NOT ESCAPED
    (?<!             # Not after one backslash
        (?<!         # unless it completes a line break
            (?<!\\)  # that is not itself escaped.
        \\)
    \\)
`
