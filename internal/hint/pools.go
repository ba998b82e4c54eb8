package hint

import "github.com/dusk-indust/learnwatch/internal/analyzer"

// Level 1 is conceptual, 2 structural, 3 syntax and 4 a code template.
var templates = map[analyzer.PatternKind]map[int][]string{
	analyzer.PatternLoops: {
		1: {
			"You need to iterate through something here...",
			"Think about repeating an action for each item...",
		},
		2: {
			"A loop structure would work well here. Which type of loop fits?",
			"Consider: do you know the number of iterations, or are you checking a condition?",
		},
		3: {
			"Syntax: `for item in collection:` or `while condition:`",
			"Try starting with `for` followed by a variable name...",
		},
		4: {
			"```python\nfor item in items:\n    # your code here\n```",
			"```python\nwhile condition:\n    # your code here\n```",
		},
	},
	analyzer.PatternFunctions: {
		1: {
			"This looks like it should be its own reusable piece of logic...",
			"Think about wrapping this in a function for clarity...",
		},
		2: {
			"You'll need: function definition, parameters, return value",
			"What inputs does this need? What should it output?",
		},
		3: {
			"Syntax: `def function_name(parameters):`",
			"Start with `def`, choose a descriptive name...",
		},
		4: {
			"```python\ndef function_name(param1, param2):\n    # implementation\n    return result\n```",
		},
	},
	analyzer.PatternConditionals: {
		1: {
			"You need to make a decision based on a condition...",
			"Think about when you'd want different code to run...",
		},
		2: {
			"An if-statement controls the flow. What's the condition?",
			"Consider: what condition determines which path to take?",
		},
		3: {
			"Syntax: `if condition:` or add `elif`/`else`",
			"Try `if some_condition:` followed by indented code...",
		},
		4: {
			"```python\nif condition:\n    # do something\nelse:\n    # do something else\n```",
		},
	},
	analyzer.PatternClasses: {
		1: {
			"Some data and behavior here belong together...",
			"Think about what kind of object this code is describing...",
		},
		2: {
			"A class groups state with the methods that use it. What attributes does it need?",
			"Consider: what goes in the constructor, and which methods act on that state?",
		},
		3: {
			"Syntax: `class Name:` with a `def __init__(self, ...):` inside",
			"Start with `class`, a CapWords name, then indent the methods...",
		},
		4: {
			"```python\nclass Name:\n    def __init__(self, value):\n        self.value = value\n\n    def method(self):\n        return self.value\n```",
		},
	},
	analyzer.PatternComprehensions: {
		1: {
			"You're building a new collection from an existing one...",
			"Think about transforming or filtering every element in one step...",
		},
		2: {
			"A comprehension combines an expression, a loop and an optional filter. Which parts do you need?",
			"Consider: what does each new element look like, and which elements should be kept?",
		},
		3: {
			"Syntax: `[expression for item in iterable]`",
			"Try `[x for x in items if condition]` inside square brackets...",
		},
		4: {
			"```python\nresult = [transform(item) for item in items if keep(item)]\n```",
		},
	},
	analyzer.PatternContextManagers: {
		1: {
			"Something here needs to be opened and reliably closed again...",
			"Think about what cleans up this resource when you're done with it...",
		},
		2: {
			"A `with` block sets a resource up and tears it down for you. Which resource is it?",
			"Consider: what object manages the resource, and what name will you bind it to?",
		},
		3: {
			"Syntax: `with expression as name:`",
			"Try `with open(path) as handle:` followed by indented code...",
		},
		4: {
			"```python\nwith open(path) as handle:\n    data = handle.read()\n```",
		},
	},
	analyzer.PatternErrorHandling: {
		1: {
			"Something here can fail. What should happen when it does?",
			"Think about which operation might raise an exception...",
		},
		2: {
			"A try block guards risky code; except handles the failure. Which exception do you expect?",
			"Consider: what to try, what to catch, and what must always run afterwards?",
		},
		3: {
			"Syntax: `try:` ... `except SomeError:` ... optionally `finally:`",
			"Start with `try:`, indent the risky call, then add `except ValueError:`...",
		},
		4: {
			"```python\ntry:\n    value = risky()\nexcept ValueError as err:\n    handle(err)\nfinally:\n    cleanup()\n```",
		},
	},
}

var bestPractices = map[analyzer.PatternKind][]string{
	analyzer.PatternLoops: {
		"Use `enumerate()` when you need both index and value",
		"List comprehensions are Pythonic for simple transformations",
		"Avoid modifying a list while iterating over it",
	},
	analyzer.PatternFunctions: {
		"Use descriptive names that explain what the function does",
		"Keep functions small and focused on one task",
		"Add docstrings to explain purpose, params, and return value",
		"Consider using type hints for clarity",
	},
	analyzer.PatternConditionals: {
		"Use 'elif' instead of multiple 'if' statements when appropriate",
		"Consider the ternary operator for simple conditions: `x if condition else y`",
		"Early returns can make code more readable",
	},
	analyzer.PatternClasses: {
		"Keep `__init__` simple: assign attributes, don't do heavy work",
		"Prefer composition over deep inheritance chains",
		"Consider `@dataclass` for classes that mostly hold data",
	},
	analyzer.PatternComprehensions: {
		"Keep comprehensions to one line; use a loop when the logic grows",
		"Use a generator expression when you only iterate once",
		"Dict and set comprehensions follow the same shape",
	},
	analyzer.PatternContextManagers: {
		"Always open files with `with` so they close even on errors",
		"Several resources can share one `with` statement",
		"`contextlib.contextmanager` turns a generator into a context manager",
	},
	analyzer.PatternErrorHandling: {
		"Catch the most specific exception you can",
		"Never silence errors with a bare `except:`",
		"Use `finally` for cleanup that must always happen",
	},
}

// genericTemplates frame an unrecognized pattern by level.
var genericTemplates = map[int]string{
	1: "Think about adding %s here... what idea is missing?",
	2: "Consider the structure %s needs: which parts fit together here?",
	3: "Look up the syntax for %s and write its first line...",
	4: "Write out an example of %s, then adapt it to this code.",
}
